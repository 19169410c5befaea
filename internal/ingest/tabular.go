package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/gate"
)

// Column names of tabular feeds. Only source_url and raw_text are required.
const (
	ColSourceURL      = "source_url"
	ColRawText        = "raw_text"
	ColTimestamp      = "timestamp"
	ColSourceType     = "source_type"
	ColClassification = "classification"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp column of a tabular or JSON feed.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("ingest: unparseable timestamp %q", s)
}

// ReadCSV reads a CSV feed with a header row.
func (l *Loader) ReadCSV(ctx context.Context, r io.Reader) ([]gate.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "csv: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, record)
	}
	return l.fromRows(rows, "csv")
}

// ReadXLSX reads the first sheet of an XLSX workbook with a header row.
func (l *Loader) ReadXLSX(ctx context.Context, path string) ([]gate.Candidate, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "xlsx: context cancelled")
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return l.fromRows(rows, "xlsx")
}

// fromRows maps a header row and data rows to candidates. Rows with a bad
// timestamp are skipped; an empty timestamp uses the loader clock.
func (l *Loader) fromRows(rows [][]string, source string) ([]gate.Candidate, error) {
	if len(rows) == 0 {
		return nil, ErrNoItems
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{ColSourceURL, ColRawText} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("%s: missing required column %q", source, required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]gate.Candidate, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		c := gate.Candidate{
			SourceURL:  cell(row, ColSourceURL),
			RawText:    cell(row, ColRawText),
			SourceType: cell(row, ColSourceType),
		}
		if c.SourceType == "" {
			c.SourceType = source
		}
		if raw := cell(row, ColTimestamp); raw == "" {
			c.Timestamp = l.now().UTC()
		} else {
			ts, err := ParseTimestamp(raw)
			if err != nil {
				l.log.Warn("row skipped",
					zap.String("source", source),
					zap.Int("row", n+2),
					zap.Error(err),
				)
				continue
			}
			c.Timestamp = ts
		}
		if payload := cell(row, ColClassification); payload != "" {
			c.Classification = []byte(payload)
		}
		out = append(out, c)
	}
	return out, nil
}
