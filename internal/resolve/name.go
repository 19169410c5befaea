package resolve

import (
	"regexp"
	"strings"
	"unicode"
)

// Names never span lines.
var namePatterns = []*regexp.Regexp{
	// "at Acme Labs." / "@ Acme"
	regexp.MustCompile(`(?:at|@)\s+([A-Z][A-Za-z0-9 ]{1,30}?)(?:\s+(?:is|are|we)|\.|,|\n|$)`),
	// "Acme is hiring"
	regexp.MustCompile(`([A-Z][A-Za-z0-9 ]{1,30}?)\s+(?:is|are)\s+hiring`),
	// "Join Acme as ..."
	regexp.MustCompile(`[Jj]oin\s+([A-Z][A-Za-z0-9 ]{1,30}?)(?:\s+(?:as|to|and)|\.|,|!|\n|$)`),
}

// ExtractCompanyName looks for an explicit company mention in text, then
// falls back to the job board slug of sourceURL. It returns "" when no
// pattern matches.
func ExtractCompanyName(text, sourceURL string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	if slug := JobBoardSlug(sourceURL); slug != "" {
		return titleSlug(slug)
	}
	return ""
}

// titleSlug turns "acme-labs" into "Acme Labs".
func titleSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
