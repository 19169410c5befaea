package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/gate"
)

type jsonCandidate struct {
	SourceURL      string          `json:"source_url"`
	RawText        string          `json:"raw_text"`
	Timestamp      string          `json:"timestamp"`
	SourceType     string          `json:"source_type"`
	Classification json.RawMessage `json:"classification"`
}

// ReadJSON reads a JSON array of candidate objects. A "classification"
// member, when present and not null, is carried through as the upstream
// classifier payload.
func (l *Loader) ReadJSON(ctx context.Context, r io.Reader) ([]gate.Candidate, error) {
	itemCh, errCh := decodeJSONArray[jsonCandidate](ctx, r)

	var out []gate.Candidate
	total := 0
	for item := range itemCh {
		total++
		c := gate.Candidate{
			SourceURL:  item.SourceURL,
			RawText:    item.RawText,
			SourceType: item.SourceType,
		}
		if c.SourceType == "" {
			c.SourceType = "json"
		}
		if item.Timestamp == "" {
			c.Timestamp = l.now().UTC()
		} else {
			ts, err := ParseTimestamp(item.Timestamp)
			if err != nil {
				l.log.Warn("item skipped", zap.String("source", "json"), zap.Int("item", total), zap.Error(err))
				continue
			}
			c.Timestamp = ts
		}
		if p := bytes.TrimSpace(item.Classification); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
			c.Classification = append([]byte(nil), p...)
		}
		out = append(out, c)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "ingest: read json")
	}
	if total == 0 {
		return nil, ErrNoItems
	}
	return out, nil
}

// decodeJSONArray decodes a JSON array element by element, sending each to
// a channel. Both channels are closed when decoding completes.
func decodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}
