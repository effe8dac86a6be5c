package ingest

import (
	"regexp"
	"sort"
	"strings"
)

var (
	tagStripPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	inlineTagPattern = regexp.MustCompile(`#(\w+)`)
)

// HashtagInput holds the fields hashtags are derived from
type HashtagInput struct {
	Title   string
	City    string
	State   string
	Country string
	Notes   string
}

// DeriveHashtags builds a deterministic tag set from the place fields plus
// any explicit #tags the user typed into the notes. Each derived tag is
// lowercase, alphanumeric, and prefixed with "#"; tags that reduce to the
// bare prefix are dropped. The result is sorted so equal inputs always
// produce the same slice.
func DeriveHashtags(input HashtagInput) []string {
	tags := make(map[string]bool)

	for _, field := range []string{input.Title, input.City, input.State, input.Country} {
		if field == "" {
			continue
		}
		tag := makeTag(field)
		if len(tag) > 1 {
			tags[tag] = true
		}
	}

	// Preserve explicit #tags the user typed
	for _, m := range inlineTagPattern.FindAllStringSubmatch(input.Notes, -1) {
		tag := "#" + strings.ToLower(m[1])
		if len(tag) > 1 {
			tags[tag] = true
		}
	}

	result := make([]string, 0, len(tags))
	for tag := range tags {
		result = append(result, tag)
	}
	sort.Strings(result)

	return result
}

func makeTag(s string) string {
	return "#" + tagStripPattern.ReplaceAllString(strings.ToLower(s), "")
}
