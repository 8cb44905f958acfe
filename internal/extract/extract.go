// Package extract pulls the title and body out of a raw page payload and
// normalizes them.
//
// Payloads are loosely structured literal mappings such as
//
//	{"title": "Chocolate cake", "body": "Preheat the oven...", "url": "..."}
//
// and are parsed with a strict literal parser (see ParseLiteral). Some
// payloads carry the bare token null where a string was meant; those are
// parsed again once with every bare null quoted (see QuoteNull).
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/chriscorrea/evergreen/internal/textnorm"
)

// ParseError reports a payload that could not be parsed, even after quoting
// bare null tokens.
type ParseError struct {
	Snippet  string // leading part of the payload, for error messages
	First    error  // failure on the payload as given
	Fallback error  // failure after quoting null
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse payload %q: %v (after quoting null: %v)", e.Snippet, e.First, e.Fallback)
}

func (e *ParseError) Unwrap() error {
	return e.Fallback
}

// ErrNotMapping is returned when a payload parses to something other than a mapping.
var ErrNotMapping = errors.New("payload is not a mapping")

// Extractor extracts and normalizes page titles and bodies.
type Extractor struct {
	normalizer *textnorm.Normalizer
	mode       textnorm.StemMode
}

// New creates an Extractor that normalizes with n using mode.
func New(n *textnorm.Normalizer, mode textnorm.StemMode) *Extractor {
	return &Extractor{normalizer: n, mode: mode}
}

// Content parses raw and returns its normalized title and body.
// A missing key yields an empty string for that side; a payload with
// neither key yields ("", "").
//
// Returns a *ParseError when raw cannot be parsed as a literal mapping.
func (e *Extractor) Content(raw string) (title string, body string, err error) {
	fields, err := ParsePayload(raw)
	if err != nil {
		return "", "", err
	}

	rawTitle, hasTitle := fields["title"]
	rawBody, hasBody := fields["body"]
	if !hasTitle && !hasBody {
		slog.Debug("Payload has neither title nor body", "keys", len(fields))
		return "", "", nil
	}

	if hasTitle {
		text, err := valueText(rawTitle)
		if err != nil {
			return "", "", fmt.Errorf("invalid title: %w", err)
		}
		title = e.normalizer.NormalizeString(StripMarkup(text), true, e.mode)
	}
	if hasBody {
		text, err := valueText(rawBody)
		if err != nil {
			return "", "", fmt.Errorf("invalid body: %w", err)
		}
		body = e.normalizer.NormalizeString(StripMarkup(text), true, e.mode)
	}

	return title, body, nil
}

// ParsePayload parses raw as a literal mapping, retrying once with bare null
// tokens quoted when the first attempt fails.
func ParsePayload(raw string) (map[string]any, error) {
	value, firstErr := ParseLiteral(raw)
	if firstErr != nil {
		var fallbackErr error
		value, fallbackErr = ParseLiteral(QuoteNull(raw))
		if fallbackErr != nil {
			return nil, &ParseError{
				Snippet:  snippet(raw, 80),
				First:    firstErr,
				Fallback: fallbackErr,
			}
		}
		slog.Debug("Parsed payload after quoting null")
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, value)
	}
	return fields, nil
}

// valueText renders a scalar payload value as text; None becomes "".
func valueText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case None:
		return "", nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case *big.Int:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
