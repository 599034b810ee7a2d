/*
Package format translates messages between the chat channel and the world link clients.

It strips in-world rich-text markup, resolves @name#1234 mentions into platform mention
tokens, parses the comma-delimited client wire format, and renders channel messages,
history backlogs, and registered-user posts into their outbound text forms.
*/
package format

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<.*?>`)

// rtfTagNames are the rich-text tag names understood by the world client.
var rtfTagNames = []string{
	"b", "i", "u", "s", "sup", "sub", "color", "colour", "size", "noparse",
	"lowercase", "uppercase", "mark", "br", "nobr", "spritename",
}

// StripRTF removes rich-text markup from text.
//
// Once any bracketed run contains a known tag name, every <...> run is removed,
// not only the recognised ones. Text without a known tag is returned unmodified.
func StripRTF(text string) string {
	runs := tagPattern.FindAllString(text, -1)
	if len(runs) == 0 {
		return text
	}

	for _, run := range runs {
		if containsTagName(run[1 : len(run)-1]) {
			return tagPattern.ReplaceAllString(text, "")
		}
	}

	return text
}

func containsTagName(content string) bool {
	for _, name := range rtfTagNames {
		if strings.Contains(content, name) {
			return true
		}
	}
	return false
}
