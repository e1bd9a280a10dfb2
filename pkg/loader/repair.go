package loader

import "strings"

type scanState int

const (
	outsideQuotes scanState = iota
	insideQuotes
)

// splitLine splits a data line on commas that are outside a quoted span.
// Quote characters are kept in the field text. The field being built when the
// line ends is only emitted if it is non-empty, so "a,b," yields [a b].
func splitLine(line string) []string {
	var (
		parts   []string
		current strings.Builder
		state   = outsideQuotes
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if state == outsideQuotes {
				state = insideQuotes
			} else {
				state = outsideQuotes
			}
			current.WriteByte(ch)
		case ch == ',' && state == outsideQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// repairField trims f and quotes it when it carries a comma or colon without
// already being quoted.
func repairField(f string) string {
	f = strings.TrimSpace(f)
	if f != "" && !strings.HasPrefix(f, `"`) && strings.ContainsAny(f, ",:") {
		return `"` + f + `"`
	}
	return f
}

func repairLine(line string) string {
	parts := splitLine(line)
	for i, p := range parts {
		parts[i] = repairField(p)
	}
	return strings.Join(parts, ",")
}

// repairDocument re-quotes every data line of content. The header line is
// kept as-is.
func repairDocument(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = repairLine(lines[i])
	}
	return strings.Join(lines, "\n")
}
