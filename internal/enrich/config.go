package enrich

import (
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tables holds the keyword tables the built-in providers match against.
type Tables struct {
	Industries map[string][]string `yaml:"industries"`
	Sizes      map[string][]string `yaml:"sizes"`
	Countries  map[string]string   `yaml:"countries"`
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() *Tables {
	return &Tables{
		Industries: map[string][]string{
			"technology": {
				"software", "saas", "api", "cloud", "devops", "engineering",
				"platform", "tech", "ai", "machine learning", "data science",
				"developer", "programming", "code", "app", "mobile",
			},
			"fintech": {
				"fintech", "payments", "banking", "financial technology",
				"cryptocurrency", "blockchain", "defi", "neobank",
			},
			"healthcare": {
				"healthcare", "healthtech", "medtech", "clinical", "medical",
				"hospital", "patient", "diagnosis", "pharma", "biotech",
			},
			"e-commerce": {
				"e-commerce", "ecommerce", "retail", "marketplace", "shopping",
				"online store", "dropship",
			},
			"education": {
				"edtech", "education", "learning", "training", "course",
				"school", "university", "tutoring",
			},
			"marketing": {
				"marketing", "advertising", "adtech", "seo", "content",
				"social media", "brand", "agency",
			},
			"cybersecurity": {
				"security", "cybersecurity", "infosec", "encryption",
				"vulnerability", "penetration", "threat",
			},
		},
		Sizes: map[string][]string{
			"startup": {
				"startup", "early stage", "seed", "series a", "founding team",
				"first hire", "small team", "growing team",
			},
			"scaleup": {
				"series b", "series c", "scaling", "hypergrowth", "fast-growing",
				"100+ employees", "200+ employees",
			},
			"enterprise": {
				"fortune 500", "enterprise", "global company", "multinational",
				"1000+ employees", "5000+ employees", "publicly traded",
			},
		},
		Countries: map[string]string{
			"uk": "United Kingdom", "de": "Germany", "fr": "France", "ca": "Canada",
			"au": "Australia", "in": "India", "jp": "Japan", "cn": "China",
			"nl": "Netherlands", "es": "Spain", "it": "Italy", "br": "Brazil",
			"mx": "Mexico", "se": "Sweden", "no": "Norway", "dk": "Denmark",
			"fi": "Finland", "ch": "Switzerland", "at": "Austria", "be": "Belgium",
			"ie": "Ireland", "nz": "New Zealand", "sg": "Singapore", "hk": "Hong Kong",
			"kr": "South Korea", "za": "South Africa", "pl": "Poland",
			"cz": "Czech Republic", "ru": "Russia", "ua": "Ukraine",
		},
	}
}

// LoadTables reads keyword tables from a YAML file with a top-level
// "enrich" key. Sections missing from the file keep their defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read tables %s", path)
	}

	var wrapper struct {
		Enrich Tables `yaml:"enrich"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "enrich: parse tables")
	}

	t := DefaultTables()
	if len(wrapper.Enrich.Industries) > 0 {
		t.Industries = wrapper.Enrich.Industries
	}
	if len(wrapper.Enrich.Sizes) > 0 {
		t.Sizes = wrapper.Enrich.Sizes
	}
	if len(wrapper.Enrich.Countries) > 0 {
		t.Countries = wrapper.Enrich.Countries
	}
	return t, nil
}

// keywordTable matches whole keywords, case-insensitively, and reports the
// labels whose keywords appear.
type keywordTable struct {
	labels   []string
	patterns map[string][]*regexp.Regexp
}

func compileTable(table map[string][]string) keywordTable {
	kt := keywordTable{
		labels:   slices.Sorted(maps.Keys(table)),
		patterns: make(map[string][]*regexp.Regexp, len(table)),
	}
	for label, keywords := range table {
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			kt.patterns[label] = append(kt.patterns[label], keywordPattern(kw))
		}
	}
	return kt
}

// keywordPattern matches kw when it is not part of a longer word.
func keywordPattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(kw) + `(?:[^a-z0-9]|$)`)
}

// matches returns the labels with at least one keyword in text, in label
// order.
func (kt keywordTable) matches(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, label := range kt.labels {
		for _, re := range kt.patterns[label] {
			if re.MatchString(lower) {
				out = append(out, label)
				break
			}
		}
	}
	return out
}
