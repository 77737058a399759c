package command

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rgonek/blogpen/document"
)

// Params carries named command arguments, as sent by a toolbar or the CLI.
type Params map[string]string

type factory func(Params) (Command, error)

var catalog = map[string]factory{
	"toggle-bold":      constant(ToggleMark{Mark: document.MarkBold}),
	"toggle-italic":    constant(ToggleMark{Mark: document.MarkItalic}),
	"toggle-underline": constant(ToggleMark{Mark: document.MarkUnderline}),
	"set-heading": func(p Params) (Command, error) {
		level, err := p.level()
		return SetHeading{Level: level}, err
	},
	"toggle-heading": func(p Params) (Command, error) {
		level, err := p.level()
		return ToggleHeading{Level: level}, err
	},
	"set-paragraph":       constant(SetParagraph{}),
	"toggle-bullet-list":  constant(ToggleBulletList()),
	"toggle-ordered-list": constant(ToggleOrderedList()),
	"toggle-blockquote":   constant(ToggleBlockquote{}),
	"set-text-align": func(p Params) (Command, error) {
		align := document.Align(p["align"])
		switch align {
		case document.AlignLeft, document.AlignCenter, document.AlignRight:
			return SetTextAlign{Align: align}, nil
		}
		return nil, fmt.Errorf("invalid align %q (allowed: left, center, right)", p["align"])
	},
	"set-link": func(p Params) (Command, error) {
		return SetLink{Href: p["href"]}, nil
	},
	"unset-link": constant(UnsetLink{}),
	"insert-image": func(p Params) (Command, error) {
		if p["src"] == "" {
			return nil, fmt.Errorf("insert-image requires src")
		}
		return InsertImage{Src: p["src"], Alt: p["alt"]}, nil
	},
	"insert-raw-embed": func(p Params) (Command, error) {
		if p["html"] == "" {
			return nil, fmt.Errorf("insert-raw-embed requires html")
		}
		return InsertRawEmbed{HTML: p["html"]}, nil
	},
	"insert-video": func(p Params) (Command, error) {
		if p["url"] == "" {
			return nil, fmt.Errorf("insert-video requires url")
		}
		return InsertRawEmbed{HTML: VideoEmbedHTML(p["url"])}, nil
	},
	"insert-asset-node": func(p Params) (Command, error) {
		if p["url"] == "" || p["mime"] == "" {
			return nil, fmt.Errorf("insert-asset-node requires url and mime")
		}
		return InsertAsset{URL: p["url"], MimeType: p["mime"]}, nil
	},
}

func constant(c Command) factory {
	return func(Params) (Command, error) { return c, nil }
}

func (p Params) level() (int, error) {
	raw, ok := p["level"]
	if !ok {
		return 1, nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil || level < 1 || level > 2 {
		return 0, fmt.Errorf("invalid heading level %q (allowed: 1, 2)", raw)
	}
	return level, nil
}

// Lookup builds the named command from params.
func Lookup(name string, params Params) (Command, error) {
	f, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	cmd, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cmd, nil
}

// Names lists the catalog in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
