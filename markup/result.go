package markup

import (
	"errors"
	"fmt"

	"github.com/rgonek/blogpen/document"
)

// Result holds the output of a parse.
type Result struct {
	Document document.Document `json:"-"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// WarningType categorizes parse warnings.
type WarningType string

const (
	WarningUnknownTag       WarningType = "unknown_tag"
	WarningUnknownMark      WarningType = "unknown_mark"
	WarningDroppedFeature   WarningType = "dropped_feature"
	WarningMissingAttribute WarningType = "missing_attribute"
)

// Warning represents a non-fatal issue encountered while parsing.
type Warning struct {
	Type    WarningType `json:"type"`
	Tag     string      `json:"tag,omitempty"`
	Message string      `json:"message"`
}

// ErrParse is matched by every ParseError.
var ErrParse = errors.New("markup is not well-formed")

// ParseError reports malformed markup.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
