package resolve

import (
	"fmt"
	"strings"
)

var companyIndicators = []string{"at ", "@ ", " is hiring", "join "}

var genericNames = set("company", "startup", "team", "organization", "firm")

// maxIndicators is the number of distinct company indicators a single-company
// signal may contain.
const maxIndicators = 2

// Ambiguity explains why a signal cannot be pinned to one company. The
// zero value means the signal is unambiguous.
type Ambiguity struct {
	Reason string
}

// Ambiguous reports whether a reason was found.
func (a Ambiguity) Ambiguous() bool { return a.Reason != "" }

// CheckAmbiguity inspects text, the extracted name and every candidate
// domain before any domain is chosen. hasSlug reports whether the source
// url offers a job board slug to infer a domain from.
func CheckAmbiguity(text, name string, candidates []string, hasSlug bool) Ambiguity {
	lower := strings.ToLower(text)

	count := 0
	for _, ind := range companyIndicators {
		if strings.Contains(lower, ind) {
			count++
		}
	}
	if count > maxIndicators {
		return Ambiguity{Reason: "Multiple company references detected in signal"}
	}

	if len(candidates) > 1 {
		return Ambiguity{Reason: fmt.Sprintf("Multiple domains in signal text: %s", strings.Join(candidates, ", "))}
	}

	if in(genericNames, strings.ToLower(name)) && len(candidates) == 0 && !hasSlug {
		return Ambiguity{Reason: fmt.Sprintf("Generic company name '%s' without domain", name)}
	}
	return Ambiguity{}
}
