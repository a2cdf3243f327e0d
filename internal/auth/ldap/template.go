package ldap

import (
	"strings"

	"github.com/pkg/errors"
)

// Format substitutes {name} placeholders in tmpl with values[name]. "{{" and
// "}}" produce literal braces. Unknown placeholders and unbalanced braces are
// errors, so a template can never pass through syntax it does not understand.
func Format(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		switch c := tmpl[i]; c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", errors.Errorf("unclosed '{' at offset %d in template %q", i, tmpl)
			}
			name := tmpl[i+1 : i+1+end]
			value, ok := values[name]
			if !ok {
				return "", errors.Errorf("unknown placeholder {%s} in template %q", name, tmpl)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", errors.Errorf("unmatched '}' at offset %d in template %q", i, tmpl)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func usernameValues(username string) map[string]string {
	return map[string]string{"username": username}
}
