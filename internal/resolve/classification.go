package resolve

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/rejection"
)

// MinClassificationConfidence is the lowest upstream confidence accepted.
const MinClassificationConfidence = 0.8

// ClassifierProvider names upstream classification evidence.
const ClassifierProvider = "upstream_classifier"

var requiredClassificationFields = []string{"company_name", "domain", "intent_type", "confidence"}

// Classification is a validated upstream classifier payload.
type Classification struct {
	CompanyName string      `json:"company_name"`
	Domain      string      `json:"domain"`
	IntentType  intent.Type `json:"intent_type"`
	Confidence  float64     `json:"confidence"`
	Role        string      `json:"role,omitempty"`
	Industry    string      `json:"industry,omitempty"`
}

// ParseClassification decodes and validates raw. Malformed payloads,
// missing fields, unknown intent types and low confidence are classifier
// failures; an empty company or domain means no entity was found.
func ParseClassification(raw []byte, signalID string) (Classification, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Classification{}, rejection.Newf(rejection.ClassifierFailure, signalID,
			"Classifier output is not a JSON object: %v", err)
	}
	for _, f := range requiredClassificationFields {
		if _, ok := fields[f]; !ok {
			return Classification{}, rejection.Newf(rejection.ClassifierFailure, signalID,
				"Classifier JSON output missing required field: %s", f)
		}
	}

	var c Classification
	stringField := func(name string, dst *string) error {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return rejection.Newf(rejection.ClassifierFailure, signalID, "Invalid %s: %s", name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"company_name", &c.CompanyName},
		{"domain", &c.Domain},
		{"role", &c.Role},
		{"industry", &c.Industry},
	} {
		if err := stringField(f.name, f.dst); err != nil {
			return Classification{}, err
		}
	}

	var typ string
	if err := json.Unmarshal(fields["intent_type"], &typ); err != nil || !intent.Type(typ).Valid() {
		return Classification{}, rejection.Newf(rejection.ClassifierFailure, signalID,
			"Invalid intent_type: %s", fields["intent_type"])
	}
	c.IntentType = intent.Type(typ)

	conf, ok := parseConfidence(fields["confidence"])
	if !ok {
		return Classification{}, rejection.Newf(rejection.ClassifierFailure, signalID,
			"Invalid confidence value: %s", fields["confidence"])
	}
	c.Confidence = conf

	if strings.TrimSpace(c.CompanyName) == "" {
		return Classification{}, rejection.New(rejection.MissingEntity, "Classifier did not extract company_name", signalID)
	}
	if strings.TrimSpace(c.Domain) == "" {
		return Classification{}, rejection.New(rejection.MissingEntity, "Classifier did not extract domain", signalID)
	}
	if c.Confidence < MinClassificationConfidence {
		return Classification{}, rejection.Newf(rejection.ClassifierFailure, signalID,
			"Classifier confidence %g is below threshold %g", c.Confidence, MinClassificationConfidence)
	}
	return c, nil
}

// parseConfidence accepts a JSON number or a numeric string.
func parseConfidence(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
