// Package contentline implements the line grammar shared by iCalendar and
// vCard documents: folded physical lines are joined into logical lines and
// each logical line is split into NAME;PARAM=VALUE;...:VALUE.
package contentline

import "strings"

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Unfold joins continuation lines and returns the logical lines of text.
//
// A physical line starting with a space or tab continues the previous
// logical line; exactly that one leading character is dropped. Line
// terminators may be CRLF, CR or LF. Logical lines are right-trimmed and
// blank ones are removed.
func Unfold(text string) []string {
	physical := strings.Split(newlines.Replace(text), "\n")

	logical := make([]string, 0, len(physical))
	var cur strings.Builder
	started := false

	flush := func() {
		if !started {
			return
		}
		if line := strings.TrimRight(cur.String(), " \t"); line != "" {
			logical = append(logical, line)
		}
		cur.Reset()
	}

	for _, line := range physical {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			cur.WriteString(line[1:])
			started = true
			continue
		}
		flush()
		cur.WriteString(line)
		started = true
	}
	flush()

	return logical
}
