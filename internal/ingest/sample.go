package ingest

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"text/template"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/glassbox/internal/gate"
)

// SampleFeedURL is the feed url the built-in sample claims to come from.
const SampleFeedURL = "https://demo.glassbox.local/feed.xml"

type sampleItem struct {
	Title       string
	Link        string
	Description string
	Age         time.Duration
}

// sampleItems cover an accepted lead of every qualification tier and one
// rejection or skip per common failure.
var sampleItems = []sampleItem{
	{
		Title:       "Acme Labs is hiring a Senior Platform Engineer",
		Link:        "https://boards.greenhouse.io/acmelabs/jobs/123",
		Description: "Series A SaaS startup. Our stack is Python, Kubernetes and PostgreSQL. Questions: talent@acmelabs.io or see acmelabs.io",
		Age:         2 * 24 * time.Hour,
	},
	{
		Title:       "Funding news: Payflow closes Series B",
		Link:        "https://news.example.com/payflow-series-b",
		Description: "Payments startup Payflow raised $20M. Join Payflow as it expands. Details at payflow.com",
		Age:         5 * 24 * time.Hour,
	},
	{
		Title:       "CloudCo is hiring",
		Link:        "https://boards.greenhouse.io/cloudco/jobs/789",
		Description: "Help us build cloud infrastructure for enterprise clients with Terraform and AWS.",
		Age:         10 * 24 * time.Hour,
	},
	{
		Title:       "New CTO at Vandelay",
		Link:        "https://news.example.com/vandelay-cto",
		Description: "Vandelay appointed Jane Roe as new CTO. Press kit: vandelay.io",
		Age:         24 * time.Hour,
	},
	{
		Title:       "Northwind is hiring",
		Link:        "https://boards.greenhouse.io/northwind/jobs/55",
		Description: "See northwind.com for open roles.",
		Age:         45 * 24 * time.Hour,
	},
	{
		Title:       "Quarterly newsletter from Globex",
		Link:        "https://news.example.com/globex-newsletter",
		Description: "Read our product update at globex.com",
		Age:         3 * 24 * time.Hour,
	},
	{
		Title:       "Initech is hiring",
		Link:        "https://news.example.com/initech",
		Description: "Apply at initech.com or umbrella.com",
		Age:         4 * 24 * time.Hour,
	},
	{
		Title:       "Hooli is hiring engineers",
		Link:        "https://news.example.com/hooli",
		Description: "Apply via hooli.test",
		Age:         6 * 24 * time.Hour,
	},
	{
		Title:       "Acme Labs is hiring a Senior Platform Engineer",
		Link:        "https://boards.greenhouse.io/acmelabs/jobs/123",
		Description: "Series A SaaS startup. Our stack is Python, Kubernetes and PostgreSQL. Questions: talent@acmelabs.io or see acmelabs.io",
		Age:         2 * 24 * time.Hour,
	},
}

var sampleTemplate = template.Must(template.New("rss").Funcs(template.FuncMap{
	"xml": func(s string) string {
		var sb strings.Builder
		_ = xml.EscapeText(&sb, []byte(s))
		return sb.String()
	},
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>GlassBox sample signals</title>
{{- range .}}
    <item>
      <title>{{xml .Title}}</title>
      <link>{{xml .Link}}</link>
      <description>{{xml .Description}}</description>
      <pubDate>{{xml .PubDate}}</pubDate>
    </item>
{{- end}}
  </channel>
</rss>
`))

// SampleFeed renders the built-in demo feed with publication dates relative
// to now.
func SampleFeed(now time.Time) ([]byte, error) {
	type rendered struct {
		Title, Link, Description, PubDate string
	}
	items := make([]rendered, len(sampleItems))
	for i, it := range sampleItems {
		items[i] = rendered{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			PubDate:     now.Add(-it.Age).UTC().Format(time.RFC1123Z),
		}
	}
	var buf bytes.Buffer
	if err := sampleTemplate.Execute(&buf, items); err != nil {
		return nil, eris.Wrap(err, "ingest: render sample feed")
	}
	return buf.Bytes(), nil
}

// SampleCandidates parses SampleFeed(now).
func SampleCandidates(ctx context.Context, now time.Time) ([]gate.Candidate, error) {
	feed, err := SampleFeed(now)
	if err != nil {
		return nil, err
	}
	l := NewLoader(WithClock(func() time.Time { return now }))
	out, err := l.ReadRSS(ctx, bytes.NewReader(feed), SampleFeedURL)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: sample feed")
	}
	return out, nil
}
