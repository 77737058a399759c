// Package storage is the client of the blog REST API: content CRUD and the
// editor's media upload endpoint.
package storage

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rgonek/blogpen/media"
)

// ErrUnauthorized is returned when the API rejects the bearer credential.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound is returned when the requested content does not exist.
var ErrNotFound = errors.New("not found")

// APIError is a non-success response of the blog API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "blog api: status " + strconv.Itoa(e.Status)
	}
	return "blog api: status " + strconv.Itoa(e.Status) + ": " + e.Message
}

// TokenSource supplies the bearer credential of the current author.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential. The empty token sends no header.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Status values accepted by the API.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Content is a stored blog post.
type Content struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt,omitempty"`
	Status          string    `json:"status"`
	VideoURL        string    `json:"video_url,omitempty"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Payload is the form submitted on create and update. FeaturedImage is
// only sent when a new file was chosen.
type Payload struct {
	Title           string
	Content         string
	Status          string
	VideoURL        string
	MetaTitle       string
	MetaDescription string
	FeaturedImage   *media.File
}

// ListParams filters ListContent.
type ListParams struct {
	Page   int
	Limit  int
	Status string
	Search string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	return v
}

// Page is one page of ListContent.
type Page struct {
	Items      []Content
	Total      int
	Page       int
	TotalPages int
}
