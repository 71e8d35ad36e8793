package util

import (
	"regexp"
	"strings"
)

var (
	modelDisplayNames = map[string]string{
		"claude-4-opus":     "Opus 4",
		"claude-4-sonnet":   "Sonnet 4",
		"claude-3.5-sonnet": "Sonnet 3.5",
		"claude-3-opus":     "Opus 3",
	}

	datedModelPattern = regexp.MustCompile(`^claude-(.+)-(\d{8})$`)
)

// ModelDisplayName maps well-known model identifiers to short labels.
// Dated Claude identifiers (claude-sonnet-4-20250514) lose the prefix and date;
// anything else is returned unchanged.
func ModelDisplayName(model string) string {
	if name, ok := modelDisplayNames[model]; ok {
		return name
	}

	matches := datedModelPattern.FindStringSubmatch(model)
	if len(matches) == 3 && matches[1] != "" {
		part := matches[1]
		return strings.ToUpper(part[:1]) + part[1:]
	}
	return model
}
