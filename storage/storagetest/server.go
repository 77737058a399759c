// Package storagetest provides an in-memory blog API for tests.
package storagetest

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Post is a stored post as the fake API keeps it.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Status          string    `json:"status"`
	VideoURL        string    `json:"video_url"`
	FeaturedImage   string    `json:"featured_image"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Upload is a file received by the upload endpoint or as a featured image.
type Upload struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
	URL         string
}

// Server is a fake blog API mounted under /api.
type Server struct {
	*httptest.Server

	// Token, when set, is the bearer credential every request must carry.
	Token string
	// FailUpload makes the upload endpoint answer 500 for matching files.
	FailUpload func(name string) bool
	// FailSave makes create and update answer 500.
	FailSave bool

	mu      sync.Mutex
	posts   map[string]*Post
	uploads []Upload
	nextID  int
}

// NewServer starts a fake API. Close it when done.
func NewServer() *Server {
	s := &Server{posts: make(map[string]*Post)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeData(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Get("/blogs", s.handleList)
			r.Post("/blogs", s.handleCreate)
			r.Post("/blogs/upload-image", s.handleUpload)
			r.Get("/blogs/slug/{slug}", s.handleGetBySlug)
			r.Get("/blogs/{id}", s.handleGet)
			r.Put("/blogs/{id}", s.handleUpdate)
			r.Delete("/blogs/{id}", s.handleDelete)
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// Post returns a copy of the stored post.
func (s *Server) Post(id string) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return Post{}, false
	}
	return *p, true
}

// Put stores p, assigning an id when it has none, and returns the id.
func (s *Server) Put(p Post) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		s.nextID++
		p.ID = strconv.Itoa(s.nextID)
	}
	s.posts[p.ID] = &p
	return p.ID
}

// Uploads returns the files received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	up, err := s.receive(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.FailUpload != nil && s.FailUpload(up.Name) {
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	s.record(&up)
	writeData(w, http.StatusOK, map[string]string{"url": up.URL})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.FailSave {
		writeError(w, http.StatusInternalServerError, "database unavailable")
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	p := Post{CreatedAt: now, UpdatedAt: now}
	if !s.apply(w, r, &p) {
		return
	}

	s.mu.Lock()
	s.nextID++
	p.ID = strconv.Itoa(s.nextID)
	s.posts[p.ID] = &p
	s.mu.Unlock()

	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.FailSave {
		writeError(w, http.StatusInternalServerError, "database unavailable")
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	existing, ok := s.Post(id)
	if !ok {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	existing.UpdatedAt = time.Now().UTC()
	if !s.apply(w, r, &existing) {
		return
	}
	s.Put(existing)
	writeData(w, http.StatusOK, existing)
}

// apply copies submitted form fields onto p.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, p *Post) bool {
	p.Title = r.FormValue("title")
	p.Content = r.FormValue("content")
	p.Status = r.FormValue("status")
	p.VideoURL = r.FormValue("video_url")
	p.MetaTitle = r.FormValue("meta_title")
	p.MetaDescription = r.FormValue("meta_description")
	if p.Title == "" || p.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return false
	}
	if p.Status == "" {
		p.Status = "draft"
	}
	p.Slug = slugify(p.Title)

	if _, _, err := r.FormFile("featured_image"); err == nil {
		up, err := s.receive(r, "featured_image")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
		s.record(&up)
		p.FeaturedImage = up.URL
	}
	return true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := s.Post(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Slug == slug {
			writeData(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "blog not found")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.posts[id]
	delete(s.posts, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	page := atoiOr(r.URL.Query().Get("page"), 1)
	limit := atoiOr(r.URL.Query().Get("limit"), 10)

	s.mu.Lock()
	var matched []Post
	for i := 1; i <= s.nextID; i++ {
		p, ok := s.posts[strconv.Itoa(i)]
		if !ok || (status != "" && p.Status != status) {
			continue
		}
		matched = append(matched, *p)
	}
	s.mu.Unlock()

	from := min((page-1)*limit, len(matched))
	to := min(from+limit, len(matched))
	writeData(w, http.StatusOK, map[string]any{
		"blogs": matched[from:to],
		"pagination": map[string]int{
			"total": len(matched),
			"page":  page,
			"pages": (len(matched) + limit - 1) / limit,
		},
	})
}

func (s *Server) receive(r *http.Request, field string) (Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return Upload{}, fmt.Errorf("missing %s file", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (s *Server) record(up *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up.URL = fmt.Sprintf("%s/uploads/%d-%s", s.URL, len(s.uploads)+1, up.Name)
	s.uploads = append(s.uploads, *up)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
