package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rgonek/blogpen/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrUnknownTag is returned when UnknownTags is set to error and the markup
// contains a tag outside the document schema.
var ErrUnknownTag = errors.New("unknown tag")

// Codec converts between documents and their HTML markup.
type Codec struct {
	config   Config
	markdown goldmark.Markdown
}

type state struct {
	config   Config
	warnings []Warning
}

// New creates a Codec with the given config.
func New(config Config) (*Codec, error) {
	cfg := config.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Codec{
		config: cfg,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}, nil
}

// Deserialize parses markup into a document. It fails with a *ParseError
// only when the markup is not well-formed. Tags outside the schema degrade
// according to the UnknownTags policy and are reported as warnings.
func (c *Codec) Deserialize(src string) (Result, error) {
	if err := checkWellFormed(src); err != nil {
		return Result{}, err
	}

	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return Result{}, &ParseError{Line: 1, Column: 1, Msg: err.Error()}
	}

	s := &state{config: c.config}
	blocks, err := s.convertBlocks(nodes)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Document: document.New(blocks...),
		Warnings: s.warnings,
	}, nil
}

// Serialize renders doc as markup.
func (c *Codec) Serialize(doc document.Document) string {
	return Serialize(doc)
}

func (s *state) addWarning(warnType WarningType, tag, message string) {
	s.warnings = append(s.warnings, Warning{
		Type:    warnType,
		Tag:     tag,
		Message: message,
	})
}

func (s *state) unknownTagError(n *html.Node) error {
	return fmt.Errorf("%w: <%s>", ErrUnknownTag, n.Data)
}
