// Package ingest reads candidate signals from local feed files: RSS 2.0,
// CSV, JSON and XLSX.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/gate"
)

// Format names a feed file format.
type Format string

// Supported formats. FormatAuto picks one from the file extension.
const (
	FormatAuto Format = ""
	FormatRSS  Format = "rss"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnknownFormat is returned for unsupported feed formats.
	ErrUnknownFormat = eris.New("ingest: unknown feed format")
	// ErrNoItems is returned when a feed holds no items at all.
	ErrNoItems = eris.New("ingest: no items found in feed")
)

// ParseFormat validates a user-supplied format name. "auto" and "" select
// detection by extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "auto", FormatAuto:
		return FormatAuto, nil
	case "xml":
		return FormatRSS, nil
	case FormatRSS, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", eris.Wrapf(ErrUnknownFormat, "ingest: format %q", s)
}

// DetectFormat picks a format from the file extension of path.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".rss":
		return FormatRSS, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Wrapf(ErrUnknownFormat, "ingest: cannot detect format of %s", path)
}

// Loader turns feed files into gate candidates.
type Loader struct {
	now     func() time.Time
	feedURL string
	log     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithClock sets the clock used for items without a usable timestamp.
func WithClock(fn func() time.Time) Option {
	return func(l *Loader) { l.now = fn }
}

// WithFeedURL sets the url an RSS feed was retrieved from. It names the
// source type of every item in the feed.
func WithFeedURL(u string) Option {
	return func(l *Loader) { l.feedURL = u }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		now: time.Now,
		log: zap.L().With(zap.String("component", "ingest")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every candidate in the file at path.
func (l *Loader) Load(ctx context.Context, path string, format Format) ([]gate.Candidate, error) {
	if format == FormatAuto {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	if format == FormatXLSX {
		return l.ReadXLSX(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []gate.Candidate
	switch format {
	case FormatRSS:
		feedURL := l.feedURL
		if feedURL == "" {
			feedURL = "file://" + filepath.ToSlash(path)
		}
		out, err = l.ReadRSS(ctx, f, feedURL)
	case FormatCSV:
		out, err = l.ReadCSV(ctx, f)
	case FormatJSON:
		out, err = l.ReadJSON(ctx, f)
	default:
		return nil, eris.Wrapf(ErrUnknownFormat, "ingest: format %q", format)
	}
	if err != nil {
		return nil, err
	}

	l.log.Info("feed loaded",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("candidates", len(out)),
	)
	return out, nil
}
