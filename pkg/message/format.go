package message

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MentionArg is one template argument: the thread it refers to and the text
// shown in its place.
type MentionArg struct {
	ThreadID string
	Name     string
}

// templateField is one parsed replacement field.
type templateField struct {
	literal    string
	hasField   bool
	name       string
	conversion string
	spec       string
}

// FormatMentions fills template with positional arguments and returns a
// message whose mentions point at the substituted names. Fields follow the
// str.format grammar: "{}", "{0}", "{0!r}", "{:>8}", with "{{" and "}}" as
// escapes. Offsets and lengths count code points of the produced text.
func FormatMentions(template string, args ...MentionArg) (*Message, error) {
	return FormatMentionsNamed(template, args, nil)
}

// FormatMentionsNamed is FormatMentions with additional named arguments
// addressed as "{name}".
func FormatMentionsNamed(template string, args []MentionArg, named map[string]MentionArg) (*Message, error) {
	fields, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}

	automatic := false
	for _, f := range fields {
		if f.hasField && f.name == "" {
			automatic = true
			break
		}
	}

	var (
		out      strings.Builder
		mentions = []Mention{}
		offset   int
		next     int
	)
	for _, f := range fields {
		out.WriteString(f.literal)
		offset += utf8.RuneCountInString(f.literal)
		if !f.hasField {
			continue
		}

		name := f.name
		if name == "" {
			name = strconv.Itoa(next)
			next++
		} else if automatic && isDigits(name) {
			return nil, ErrFieldNumbering
		}

		arg, err := lookupArg(name, args, named)
		if err != nil {
			return nil, err
		}

		// Padding applies to the bare name; the conversion then wraps the padded result.
		text := arg.Name
		if f.spec != "" {
			if text, err = applySpec(text, f.spec); err != nil {
				return nil, err
			}
		}
		if text, err = convertField(text, f.conversion); err != nil {
			return nil, err
		}

		length := utf8.RuneCountInString(text)
		mentions = append(mentions, Mention{ThreadID: arg.ThreadID, Offset: offset, Length: length})
		out.WriteString(text)
		offset += length
	}

	m := NewText(out.String())
	m.Mentions = mentions
	return m, nil
}

func lookupArg(name string, args []MentionArg, named map[string]MentionArg) (MentionArg, error) {
	if strings.ContainsAny(name, ".[") {
		return MentionArg{}, fmt.Errorf("%w: attribute or index access in field %q", ErrMentionFormat, name)
	}
	if isDigits(name) {
		i, err := strconv.Atoi(name)
		if err != nil || i >= len(args) {
			return MentionArg{}, fmt.Errorf("%w: positional index %s out of range", ErrMissingArg, name)
		}
		return args[i], nil
	}
	arg, ok := named[name]
	if !ok {
		return MentionArg{}, fmt.Errorf("%w: %q", ErrMissingArg, name)
	}
	return arg, nil
}

// parseTemplate splits template into literal runs and replacement fields.
func parseTemplate(template string) ([]templateField, error) {
	var (
		fields  []templateField
		literal strings.Builder
	)
	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == '{' && i+1 < len(template) && template[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(template) && template[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case c == '}':
			return nil, fmt.Errorf("%w: single '}' encountered", ErrMentionFormat)
		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: single '{' encountered", ErrMentionFormat)
			}
			body := template[i+1 : i+1+end]
			if strings.IndexByte(body, '{') >= 0 {
				return nil, fmt.Errorf("%w: nested replacement fields are not supported", ErrMentionFormat)
			}
			f, err := parseField(body)
			if err != nil {
				return nil, err
			}
			f.literal = literal.String()
			literal.Reset()
			fields = append(fields, f)
			i += end + 2
		default:
			literal.WriteByte(c)
			i++
		}
	}
	if literal.Len() > 0 {
		fields = append(fields, templateField{literal: literal.String()})
	}
	return fields, nil
}

func parseField(body string) (templateField, error) {
	f := templateField{hasField: true}
	head, spec, hasSpec := strings.Cut(body, ":")
	if hasSpec {
		f.spec = spec
	}
	name, conv, hasConv := strings.Cut(head, "!")
	f.name = name
	if hasConv {
		if len(conv) != 1 {
			return f, fmt.Errorf("%w: expected ':' after conversion specifier", ErrMentionFormat)
		}
		f.conversion = conv
	}
	return f, nil
}

func convertField(s, conversion string) (string, error) {
	switch conversion {
	case "", "s":
		return s, nil
	case "r":
		return pyRepr(s, false), nil
	case "a":
		return pyRepr(s, true), nil
	default:
		return "", fmt.Errorf("%w: unknown conversion specifier %s", ErrMentionFormat, conversion)
	}
}

// applySpec implements the string subset of the format mini-language:
// [[fill]align][width][.precision][s].
func applySpec(s, spec string) (string, error) {
	runes := []rune(spec)
	fill, align := ' ', '<'
	i := 0
	switch {
	case len(runes) >= 2 && isAlign(runes[1]):
		fill, align = runes[0], runes[1]
		i = 2
	case len(runes) >= 1 && isAlign(runes[0]):
		align = runes[0]
		i = 1
	}
	if align == '=' {
		return "", fmt.Errorf("%w: '=' alignment not allowed in string format specifier", ErrMentionFormat)
	}

	width, i := readInt(runes, i)
	precision := -1
	if i < len(runes) && runes[i] == '.' {
		var start = i + 1
		precision, i = readInt(runes, start)
		if i == start {
			return "", fmt.Errorf("%w: format specifier missing precision", ErrMentionFormat)
		}
	}
	if i < len(runes) && runes[i] == 's' {
		i++
	}
	if i != len(runes) {
		return "", fmt.Errorf("%w: unsupported format specifier %q", ErrMentionFormat, spec)
	}

	value := []rune(s)
	if precision >= 0 && len(value) > precision {
		value = value[:precision]
	}
	pad := width - len(value)
	if pad <= 0 {
		return string(value), nil
	}
	var left, right int
	switch align {
	case '>':
		left = pad
	case '^':
		left = pad / 2
		right = pad - left
	default:
		right = pad
	}
	fillStr := string(fill)
	return strings.Repeat(fillStr, left) + string(value) + strings.Repeat(fillStr, right), nil
}

func isAlign(r rune) bool {
	return r == '<' || r == '>' || r == '^' || r == '='
}

func readInt(runes []rune, i int) (int, int) {
	n := 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		n = n*10 + int(runes[i]-'0')
		i++
	}
	return n, i
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// pyRepr quotes s the way a str repr does: single quotes unless the text
// contains a single quote and no double quote. With ascii set, every
// non-ASCII code point is escaped.
func pyRepr(s string, ascii bool) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x80:
			b.WriteRune(r)
		case !ascii && unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}
