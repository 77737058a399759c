package transform

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errMalformedDataURL = errors.New("malformed data url")

type payload struct {
	mimeType string
	data     []byte
}

// decodeDataURL decodes a data URL of the form
// data:[<mediatype>][;base64],<data>.
func decodeDataURL(raw string) (payload, error) {
	rest, ok := cutPrefixFold(raw, "data:")
	if !ok {
		return payload{}, fmt.Errorf("%w: missing data scheme", errMalformedDataURL)
	}
	meta, body, ok := strings.Cut(rest, ",")
	if !ok {
		return payload{}, fmt.Errorf("%w: missing comma", errMalformedDataURL)
	}

	params := strings.Split(meta, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" {
		mimeType = "text/plain"
	}
	encoded := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			encoded = true
		}
	}

	if !encoded {
		data, err := url.PathUnescape(body)
		if err != nil {
			return payload{}, fmt.Errorf("%w: %w", errMalformedDataURL, err)
		}
		return payload{mimeType: mimeType, data: []byte(data)}, nil
	}

	body, err := url.PathUnescape(body)
	if err != nil {
		return payload{}, fmt.Errorf("%w: %w", errMalformedDataURL, err)
	}
	body = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, body)
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(body, "="))
	}
	if err != nil {
		return payload{}, fmt.Errorf("%w: %w", errMalformedDataURL, err)
	}
	return payload{mimeType: mimeType, data: data}, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// subtype returns the extension used for a MIME type, "png" for "image/png".
func subtype(mimeType string) string {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok || sub == "" {
		return "bin"
	}
	return sub
}
