package extract

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrSyntax is wrapped by every literal parse failure.
var ErrSyntax = errors.New("invalid literal")

// None is the parsed value of the None literal.
type None struct{}

// ParseLiteral parses a single literal expression: quoted strings, integers,
// floats, True/False/None, lists, tuples and dicts. Parsing is purely
// syntactic; nothing in the input is ever evaluated.
//
// Values map to Go types as follows: string, int64 (or *big.Int when it
// overflows), float64, bool, None, []any for lists and tuples, and
// map[string]any for dicts (keys are rendered with formatKey).
func ParseLiteral(input string) (any, error) {
	p := &literalParser{src: input}
	p.skipSpace()
	value, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.peekSnippet())
	}
	return value, nil
}

// maxDepth bounds container nesting
const maxDepth = 512

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) peekSnippet() string {
	end := p.pos + 16
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) parseValue(depth int) (any, error) {
	if depth > maxDepth {
		return nil, p.errorf("nesting deeper than %d", maxDepth)
	}
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseDict(depth)
	case c == '[':
		return p.parseSequence(depth, '[', ']')
	case c == '(':
		return p.parseSequence(depth, '(', ')')
	case c == '"' || c == '\'':
		return p.parseStrings()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		if n, _ := stringPrefix(p.src[p.pos:]); n > 0 {
			return p.parseStrings()
		}
		return p.parseName()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) parseDict(depth int) (any, error) {
	p.pos++ // {
	out := make(map[string]any)
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated dict")
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return out, nil
		}

		key, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		k, err := formatKey(key)
		if err != nil {
			return nil, p.errorf("%v", err)
		}

		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':' after dict key")
		}
		p.pos++
		p.skipSpace()

		value, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		out[k] = value

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated dict")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}' in dict")
		}
	}
}

func (p *literalParser) parseSequence(depth int, open, close byte) (any, error) {
	p.pos++ // open
	out := []any{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated %c", open)
		}
		if p.src[p.pos] == close {
			p.pos++
			return out, nil
		}

		value, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, value)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated %c", open)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
			p.skipSpace()
			if p.pos < len(p.src) && p.src[p.pos] == close {
				p.pos++
				return out, nil
			}
		case close:
			p.pos++
			// a parenthesized single value without a trailing comma is not a tuple
			if open == '(' && len(out) == 1 {
				return out[0], nil
			}
			return out, nil
		default:
			return nil, p.errorf("expected ',' or %q", close)
		}
	}
}

// stringPrefix returns the length of a u, r, b, br or rb string prefix
// (any case) at the start of s when a quote follows it, and whether the
// literal is raw.
func stringPrefix(s string) (n int, raw bool) {
	for n < len(s) && n < 2 && strings.IndexByte("uUbBrR", s[n]) >= 0 {
		n++
	}
	if n == 0 || n >= len(s) || (s[n] != '"' && s[n] != '\'') {
		return 0, false
	}

	switch strings.ToLower(s[:n]) {
	case "u", "b":
		return n, false
	case "r", "br", "rb":
		return n, true
	default:
		return 0, false
	}
}

// parseStrings reads one or more adjacent string literals and concatenates them.
func (p *literalParser) parseStrings() (any, error) {
	var sb strings.Builder
	for {
		n, raw := stringPrefix(p.src[p.pos:])
		p.pos += n

		s, err := p.parseString(raw)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)

		save := p.pos
		p.skipSpace()
		if p.pos < len(p.src) {
			if c := p.src[p.pos]; c == '"' || c == '\'' {
				continue
			}
			if n, _ := stringPrefix(p.src[p.pos:]); n > 0 {
				continue
			}
		}
		p.pos = save
		return sb.String(), nil
	}
}

// parseString reads one quoted literal. Raw literals keep backslashes and
// the character after them verbatim.
func (p *literalParser) parseString(raw bool) (string, error) {
	quote := p.src[p.pos]
	triple := strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3))
	if triple {
		p.pos += 3
	} else {
		p.pos++
	}

	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]

		switch {
		case c == quote && !triple:
			p.pos++
			return sb.String(), nil
		case c == quote && strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3)):
			p.pos += 3
			return sb.String(), nil
		case (c == '\n' || c == '\r') && !triple:
			return "", p.errorf("newline in string")
		case c == '\\' && raw:
			if p.pos+1 >= len(p.src) {
				return "", p.errorf("unterminated string")
			}
			sb.WriteString(p.src[p.pos : p.pos+2])
			p.pos += 2
		case c == '\\':
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *literalParser) parseEscape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++

	switch c {
	case '\n':
		// line continuation
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case 'x':
		return p.writeCodePoint(sb, 2)
	case 'u':
		return p.writeCodePoint(sb, 4)
	case 'U':
		return p.writeCodePoint(sb, 8)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		start := p.pos - 1
		for p.pos < len(p.src) && p.pos-start < 3 && p.src[p.pos] >= '0' && p.src[p.pos] <= '7' {
			p.pos++
		}
		v, _ := strconv.ParseUint(p.src[start:p.pos], 8, 32)
		sb.WriteRune(rune(v))
	default:
		// unknown escapes are kept verbatim
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return nil
}

func (p *literalParser) writeCodePoint(sb *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || v > unicode.MaxRune {
		return p.errorf("invalid escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	sb.WriteRune(rune(v))
	return nil
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
		p.skipSpace()
	}
	sign := strings.TrimSpace(p.src[start:p.pos])
	digitsStart := p.pos

	if p.pos+1 < len(p.src) && p.src[p.pos] == '0' && strings.IndexByte("xXoObB", p.src[p.pos+1]) >= 0 {
		return p.parsePrefixedInt(start, sign)
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' ||
			((c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}

	text := sign + strings.ReplaceAll(p.src[digitsStart:p.pos], "_", "")
	if p.pos == digitsStart {
		return nil, p.errorf("malformed number")
	}
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		return nil, p.errorf("malformed number %q", p.src[start:p.pos+1])
	}

	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
		if b, ok := new(big.Int).SetString(text, 10); ok {
			return b, nil
		}
		return nil, p.errorf("malformed integer %q", text)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("malformed float %q", text)
	}
	return f, nil
}

// parsePrefixedInt reads a hexadecimal, octal or binary integer such as
// 0xff, 0o17 or 0b1010.
func (p *literalParser) parsePrefixedInt(start int, sign string) (any, error) {
	digitsStart := p.pos
	p.pos += 2
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			p.pos++
			continue
		}
		break
	}
	if p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		return nil, p.errorf("malformed number %q", p.src[start:p.pos+1])
	}

	// base 0 understands the same prefixes and digit separators
	text := sign + p.src[digitsStart:p.pos]
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return i, nil
	}
	if b, ok := new(big.Int).SetString(text, 0); ok {
		return b, nil
	}
	return nil, p.errorf("malformed integer %q", text)
}

func (p *literalParser) parseName() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}

	switch name := p.src[start:p.pos]; name {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return None{}, nil
	default:
		p.pos = start
		return nil, p.errorf("name %q is not a literal", name)
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// formatKey renders a hashable literal as a map key.
func formatKey(key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case *big.Int:
		return k.String(), nil
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64), nil
	case bool:
		if k {
			return "True", nil
		}
		return "False", nil
	case None:
		return "None", nil
	default:
		return "", fmt.Errorf("unhashable dict key of type %T", key)
	}
}

// QuoteNull rewrites every bare null token outside string literals as the
// string literal "null". Text inside quotes is left untouched.
func QuoteNull(input string) string {
	var sb strings.Builder
	sb.Grow(len(input) + 16)

	var quote byte
	for i := 0; i < len(input); i++ {
		c := input[i]

		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(input) {
				i++
				sb.WriteByte(input[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}

		if c == '"' || c == '\'' {
			quote = c
			sb.WriteByte(c)
			continue
		}

		if c == 'n' && strings.HasPrefix(input[i:], "null") &&
			(i == 0 || !isIdentPart(input[i-1])) &&
			(i+4 == len(input) || !isIdentPart(input[i+4])) {
			sb.WriteString(`"null"`)
			i += 3
			continue
		}

		sb.WriteByte(c)
	}
	return sb.String()
}
