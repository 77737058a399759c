package post

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator"
	"github.com/rgonek/blogpen/document"
	"github.com/rgonek/blogpen/markup"
	"github.com/rgonek/blogpen/media"
)

// ValidationError lists the form fields that failed validation, keyed by
// their wire name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid post: " + strings.Join(parts, "; ")
}

var messages = map[string]string{
	"title":            "Title is required",
	"content":          "Content is required",
	"status":           "Status must be one of draft, published, archived",
	"video_url":        "Video URL must be a valid URL",
	"meta_title":       "Meta title must be at most 200 characters",
	"meta_description": "Meta description must be at most 500 characters",
}

func newValidator(codec *markup.Codec) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("content", contentValidator(codec)); err != nil {
		panic(err)
	}
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// contentValidator rejects markup that holds only the empty document.
// Markup that does not parse is left to the server.
func contentValidator(codec *markup.Codec) validator.Func {
	return func(fl validator.FieldLevel) bool {
		src := fl.Field().String()
		if strings.TrimSpace(src) == "" {
			return false
		}
		res, err := codec.Deserialize(src)
		if err != nil {
			return true
		}
		return !document.IsEmpty(res.Document)
	}
}

// validate checks d against the form rules and the featured image limits.
func (s *Service) validate(d Draft) error {
	fields := map[string]string{}

	if err := s.validator.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate post: %w", err)
		}
		for _, fe := range verrs {
			msg, ok := messages[fe.Field()]
			if !ok {
				msg = fmt.Sprintf("failed on %s", fe.Tag())
			}
			fields[fe.Field()] = msg
		}
	}

	if d.FeaturedImage != nil {
		if err := s.media.CheckFile(*d.FeaturedImage, media.KindImage); err != nil {
			fields["featured_image"] = s.media.Notice(err, media.KindImage)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
