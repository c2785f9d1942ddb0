package scraper

import (
	"regexp"
	"strings"
)

var citationRE = regexp.MustCompile(`\[[0-9]+\]`)

// StripCitations removes footnote-style reference markers such as "[1]"
// and collapses the remaining whitespace to single spaces.
func StripCitations(text string) string {
	return strings.Join(strings.Fields(citationRE.ReplaceAllString(text, "")), " ")
}

// JoinLines trims every line of a multi-line cell and joins them with sep.
// List-display fields use " ", block fields keep "\n". The caller picks
// per field; the source data is inconsistent about which it wants.
func JoinLines(text, sep string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, sep)
}
