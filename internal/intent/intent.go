// Package intent classifies free text into a time-sensitive buying intent.
// The gating engine and the scorer share this classifier so that a signal
// is never admitted under one keyword set and scored under another.
package intent

import "strings"

// Type is a detected intent.
type Type string

const (
	None            Type = ""
	Hiring          Type = "hiring"
	Funding         Type = "funding"
	ExecutiveChange Type = "executive_change"
)

// Label returns a display label for t.
func (t Type) Label() string {
	switch t {
	case Hiring:
		return "hiring"
	case Funding:
		return "funding"
	case ExecutiveChange:
		return "executive change"
	}
	return "none"
}

// Valid reports whether t names a detectable intent.
func (t Type) Valid() bool {
	return t == Hiring || t == Funding || t == ExecutiveChange
}

var (
	hiringKeywords = []string{
		"hiring",
		"job opening",
		"we're looking for",
		"join our team",
		"open position",
		"career opportunity",
		"now hiring",
		"seeking",
		"looking to hire",
		"job post",
	}
	fundingKeywords = []string{
		"raised",
		"funding",
		"series a",
		"series b",
		"series c",
		"seed round",
		"investment",
		"fundraise",
		"capital",
	}
	executiveKeywords = []string{
		"new ceo",
		"new cto",
		"appointed",
		"joins as",
		"promoted to",
		"named as",
		"executive",
	}
	noiseKeywords = []string{
		"maybe",
		"possibly",
		"might",
		"unclear",
		"unconfirmed",
		"rumor",
		"speculation",
		"could be",
		"tbd",
		"tentative",
	}
)

// order is the precedence used when text matches several sets.
var order = []struct {
	typ      Type
	keywords []string
}{
	{Hiring, hiringKeywords},
	{Funding, fundingKeywords},
	{ExecutiveChange, executiveKeywords},
}

// Classify returns the highest-precedence intent found in text along with
// the keyword that matched. Matching is case-insensitive substring search.
func Classify(text string) (Type, string) {
	lower := strings.ToLower(text)
	for _, set := range order {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.typ, kw
			}
		}
	}
	return None, ""
}

// Keywords returns a copy of the keyword set for t.
func Keywords(t Type) []string {
	for _, set := range order {
		if set.typ == t {
			return append([]string(nil), set.keywords...)
		}
	}
	return nil
}

// NoiseMarkers returns the distinct uncertainty keywords present in text.
func NoiseMarkers(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range noiseKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
