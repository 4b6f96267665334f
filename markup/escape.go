// Package markup escapes arbitrary text so that reddit's markdown renders it
// literally.
package markup

import (
	"regexp"
	"strings"
)

// Leading 1-3 digits followed by a dot. Reddit renumbers ordered lists from 1,
// so "5. Item" would otherwise render as "1. Item".
var orderedListRe = regexp.MustCompile(`^(\d{1,3})\.`)

// Escape applies, line by line and in this order: escape a leading '#',
// strip leading spaces and tabs, escape the dot of a leading ordered-list
// number. Finally every non-empty line followed by another non-empty line gets
// a blank line after it, since reddit needs an empty line to break a paragraph.
func Escape(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			line = `\` + line
		}
		line = strings.TrimLeft(line, " \t")
		line = orderedListRe.ReplaceAllString(line, `$1\.`)
		lines[i] = line
	}

	var b strings.Builder
	b.Grow(len(text) + len(lines))
	for i, line := range lines {
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		b.WriteByte('\n')
		if line != "" && lines[i+1] != "" {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Quote turns every line of text into a block quote line.
func Quote(text string) string {
	return "> " + strings.ReplaceAll(text, "\n", "\n> ")
}
