package ingest

import (
	"context"
	"encoding/xml"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/glassbox/internal/gate"
)

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParsePubDate parses an RSS pubDate. It reports false for empty or
// unparseable dates.
func ParsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ReadRSS reads the items of an RSS 2.0 feed. Items without a link are
// skipped. Items without a usable pubDate are stamped with the loader clock.
func (l *Loader) ReadRSS(ctx context.Context, r io.Reader, feedURL string) ([]gate.Candidate, error) {
	itemCh, errCh := streamXML[rssItem](ctx, r, "item")

	sourceType := RSSSourceType(feedURL)
	var out []gate.Candidate
	total := 0
	for item := range itemCh {
		total++
		link := strings.TrimSpace(item.Link)
		if link == "" {
			l.log.Debug("rss item without link skipped", zap.String("title", item.Title))
			continue
		}
		ts, ok := ParsePubDate(item.PubDate)
		if !ok {
			ts = l.now().UTC()
		}
		out = append(out, gate.Candidate{
			SourceURL:  link,
			RawText:    composeText(item.Title, item.Description),
			Timestamp:  ts,
			SourceType: sourceType,
		})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "ingest: read rss")
	}
	if total == 0 {
		return nil, ErrNoItems
	}
	return out, nil
}

// RSSSourceType names items from feedURL as "rss_<domain>", where domain is
// the last two labels of the feed host.
func RSSSourceType(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return "rss_unknown"
	}
	labels := strings.Split(strings.ToLower(u.Hostname()), ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return "rss_" + strings.Join(labels, ".")
}

func composeText(title, description string) string {
	title, description = NormalizeText(title), NormalizeText(description)
	switch {
	case title != "" && description != "":
		return title + "\n\n" + description
	case title != "":
		return title
	}
	return description
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeText strips HTML tags and entities, applies NFKC normalization
// and collapses whitespace.
func NormalizeText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = norm.NFKC.String(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// streamXML decodes elements with the given local name and sends them to a
// channel. Both channels are closed when decoding completes.
func streamXML[T any](ctx context.Context, r io.Reader, elementName string) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := xml.NewDecoder(r)
		decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
			enc, err := htmlindex.Get(charset)
			if err != nil {
				return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
			}
			return enc.NewDecoder().Reader(input), nil
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}

			tok, err := decoder.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "xml: read token")
				return
			}

			se, ok := tok.(xml.StartElement)
			if !ok || se.Name.Local != elementName {
				continue
			}

			var item T
			if err := decoder.DecodeElement(&item, &se); err != nil {
				errCh <- eris.Wrap(err, "xml: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}
