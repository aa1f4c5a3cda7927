package i18n

import (
	"fmt"
	"strings"
)

// Interpolate replaces {name} placeholders with values from vars.
// Placeholders without a value are left untouched.
func Interpolate(line string, vars map[string]any) string {
	if len(vars) == 0 || !strings.Contains(line, "{") {
		return line
	}

	var b strings.Builder
	b.Grow(len(line))
	for {
		open := strings.IndexByte(line, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(line[open:], '}')
		if end < 0 {
			break
		}
		end += open

		name := line[open+1 : end]
		value, ok := vars[name]
		b.WriteString(line[:open])
		if ok {
			b.WriteString(fmt.Sprint(value))
		} else {
			b.WriteString(line[open : end+1])
		}
		line = line[end+1:]
	}
	b.WriteString(line)
	return b.String()
}
