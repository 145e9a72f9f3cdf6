package harness

import (
	"errors"
	"strings"
)

// Placeholder names understood by driver templates.
const (
	KeyBackend     = "backend"
	KeyCompiler    = "compiler"
	KeySubjectName = "subject_name"
	KeySubjectPath = "subject_path"
	KeyDir         = "dir"
)

const reasonNoValue = "no value for placeholder"

// renderTemplate substitutes {name} placeholders in tmpl with values from
// data. "{{" and "}}" produce literal braces. Any placeholder missing from
// data, or any syntax error, fails the whole render.
func renderTemplate(tmpl string, data map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Template: tmpl, Reason: "unclosed '{'"}
			}
			key := tmpl[i+1 : i+1+end]
			if key == "" {
				return "", &TemplateError{Template: tmpl, Reason: "empty placeholder"}
			}
			if !isPlaceholderName(key) {
				return "", &TemplateError{Template: tmpl, Key: key, Reason: "invalid placeholder"}
			}
			val, ok := data[key]
			if !ok {
				return "", &TemplateError{Template: tmpl, Key: key, Reason: reasonNoValue}
			}
			sb.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Template: tmpl, Reason: "unmatched '}'"}
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), nil
}

// isPlaceholderName reports whether s is a valid placeholder name: a letter
// or underscore followed by letters, digits or underscores.
func isPlaceholderName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// Placeholders returns the distinct placeholder names referenced by tmpl, in
// order of first appearance. It returns a TemplateError if tmpl is malformed.
func Placeholders(tmpl string) ([]string, error) {
	seen := make(map[string]bool)
	var keys []string
	probe := make(map[string]string)

	for {
		_, err := renderTemplate(tmpl, probe)
		if err == nil {
			return keys, nil
		}
		var te *TemplateError
		if !errors.As(err, &te) || te.Reason != reasonNoValue || seen[te.Key] {
			return nil, err
		}
		seen[te.Key] = true
		keys = append(keys, te.Key)
		probe[te.Key] = ""
	}
}
