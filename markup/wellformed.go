package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

type openTag struct {
	name   string
	offset int
}

// checkWellFormed walks the token stream and requires every non-void start
// tag to be closed by a matching end tag in nesting order.
func checkWellFormed(src string) error {
	z := html.NewTokenizer(strings.NewReader(src))
	var stack []openTag
	offset := 0

	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return newParseError(src, start, z.Err().Error())
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				return newParseError(src, top.offset, fmt.Sprintf("unclosed <%s>", top.name))
			}
			return nil

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			stack = append(stack, openTag{name: tag, offset: start})

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}
			if len(stack) == 0 {
				return newParseError(src, start, fmt.Sprintf("unexpected </%s>", tag))
			}
			top := stack[len(stack)-1]
			if top.name != tag {
				return newParseError(src, start, fmt.Sprintf("unexpected </%s>, expected </%s>", tag, top.name))
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func newParseError(src string, offset int, msg string) *ParseError {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return &ParseError{
		Line:   line,
		Column: utf8.RuneCountInString(before[lineStart:]) + 1,
		Msg:    msg,
	}
}
