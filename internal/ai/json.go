package ai

import (
	"regexp"
	"strings"
)

var (
	fencedObject   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	bareObject     = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommas = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the JSON object out of a model response. Markdown fences and
// leading or trailing prose are removed, as are trailing commas. An empty string
// means no object was found.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var obj string
	if m := fencedObject.FindStringSubmatch(raw); len(m) > 1 {
		obj = m[1]
	} else {
		obj = bareObject.FindString(raw)
	}
	if obj == "" {
		return ""
	}

	return strings.TrimSpace(trailingCommas.ReplaceAllString(obj, "$1"))
}
