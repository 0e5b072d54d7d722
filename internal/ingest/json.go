// Package ingest parses adapter batch files (JSON envelopes, CSV and XLSX
// exports) into source payload maps. It reads local files only; network
// fetching belongs to the upstream source integrations.
package ingest

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// Envelope is one source's batch: the source tag, when the upstream fetch
// completed, and the native payloads.
type Envelope struct {
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetched_at"`
	Records   []map[string]any `json:"records"`
}

// ReadEnvelope decodes a JSON batch envelope and validates its source tag.
func ReadEnvelope(r io.Reader) (*Envelope, model.Source, error) {
	var env Envelope
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&env); err != nil {
		return nil, "", eris.Wrap(err, "ingest: decode envelope")
	}

	source, err := model.ParseSource(env.Source)
	if err != nil {
		return nil, "", eris.Wrap(err, "ingest: envelope source")
	}
	if env.FetchedAt.IsZero() {
		return nil, "", eris.New("ingest: envelope missing fetched_at")
	}
	return &env, source, nil
}

// ReadEnvelopeFile opens and decodes a JSON batch envelope from disk.
func ReadEnvelopeFile(path string) (*Envelope, model.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return ReadEnvelope(f)
}
