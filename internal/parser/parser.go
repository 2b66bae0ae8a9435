// Package parser extracts wikilinks and hashtags from note content and
// derives titles and topic slugs.
package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the rune limit for titles derived from content.
const MaxTitleLength = 120

// UntitledTitle is used when content has no usable first line.
const UntitledTitle = "Untitled"

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

	slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashesRe  = regexp.MustCompile(`-{2,}`)
	whitespaceRe  = regexp.MustCompile(`\s`)
	headingRe     = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
)

// Wikilink is one [[Target]] or [[Target|Alias]] token.
type Wikilink struct {
	Target string
	Alias  string
}

// Wikilinks returns the wikilink tokens of content in order of first
// appearance. Targets are trimmed and deduplicated case-insensitively;
// empty targets are dropped.
func Wikilinks(content string) []Wikilink {
	matches := wikilinkRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []Wikilink
	for _, m := range matches {
		target, alias, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		key := strings.ToLower(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Wikilink{Target: target, Alias: strings.TrimSpace(alias)})
	}
	return out
}

// Hashtags returns the distinct #tags of content, without the leading '#'.
func Hashtags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DeriveTitle returns the first non-blank line of content with any leading
// Markdown heading markers removed, truncated to MaxTitleLength runes.
func DeriveTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := headingRe.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		if line == "" {
			continue
		}
		return truncate(line, MaxTitleLength)
	}
	return UntitledTitle
}

// Slugify normalizes a topic label: lowercase, trimmed, whitespace turned
// into hyphens, anything outside [a-z0-9-] dropped, hyphen runs collapsed.
func Slugify(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = slugInvalidRe.ReplaceAllString(s, "")
	return slugDashesRe.ReplaceAllString(s, "-")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
