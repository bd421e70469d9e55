// Package analyze enriches the consolidated ticket collection with
// server mentions and technology labels, journaling every result so an
// interrupted run resumes where it stopped, and rebuilds the summary
// artifacts from the journals alone.
package analyze

import (
	"regexp"
	"strings"
)

// serverPattern matches whole-token server identifiers: the literal
// "srv-" prefix followed by 2 to 10 alphanumerics.
var serverPattern = regexp.MustCompile(`(?i)\bsrv-[a-z0-9]{2,10}\b`)

// ExtractServers returns every server identifier mentioned in text, in
// order of appearance, lower-cased. Repeats are preserved: each mention
// counts as one occurrence.
func ExtractServers(text string) []string {
	if text == "" {
		return nil
	}
	matches := serverPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return matches
}
