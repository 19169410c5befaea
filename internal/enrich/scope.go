package enrich

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
)

// Scope restricts which enriched entities may become leads. Empty lists
// disable the check, and an entity without the relevant evidence passes.
type Scope struct {
	TargetIndustries []string
	AllowedSizes     []string
}

// Check returns an out_of_scope_industry or size_mismatch rejection when the
// entity's enriched evidence falls outside the scope.
func (s Scope) Check(entity model.Entity, signalID string) error {
	if ev, ok := entity.Industry(); ok && len(s.TargetIndustries) > 0 {
		if !containsFold(s.TargetIndustries, ev.Text()) {
			return rejection.Newf(rejection.OutOfScopeIndustry, signalID,
				"Industry '%s' is not in target list: %s", ev.Text(), list(s.TargetIndustries))
		}
	}
	if ev, ok := entity.SizeEstimate(); ok && len(s.AllowedSizes) > 0 {
		if !containsFold(s.AllowedSizes, ev.Text()) {
			return rejection.Newf(rejection.SizeMismatch, signalID,
				"Company size '%s' is not in allowed sizes: %s", ev.Text(), list(s.AllowedSizes))
		}
	}
	return nil
}

func containsFold(items []string, v string) bool {
	return slices.ContainsFunc(items, func(it string) bool {
		return strings.EqualFold(strings.TrimSpace(it), v)
	})
}

func list(items []string) string {
	return fmt.Sprintf("[%s]", strings.Join(items, ", "))
}
