// Package adapter transforms source-native procurement payloads into the
// raw fields the record builder accepts. Each adapter is a pure transform;
// fetching and wire formats stay with the upstream integrations.
package adapter

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// Adapter converts one source's native payload into constructible fields.
type Adapter interface {
	// Source is the fixed identity tag this adapter stamps on records.
	Source() model.Source
	// Adapt transforms a decoded native payload. It validates nothing
	// beyond shape: invariants are the builder's job.
	Adapt(payload map[string]any) (model.RawRecord, error)
}

// Registry maps source tags to their adapters.
type Registry struct {
	adapters   map[model.Source]Adapter
	priorities map[model.Source]int
}

// NewRegistry creates a registry populated with every known source adapter.
func NewRegistry(priorities map[model.Source]int) *Registry {
	r := &Registry{
		adapters:   make(map[model.Source]Adapter),
		priorities: priorities,
	}
	r.register(&PNCP{})
	r.register(&Comprasnet{})
	r.register(&LicitacoesE{})
	r.register(&BLL{})
	r.register(&BNC{})
	return r
}

func (r *Registry) register(a Adapter) {
	r.adapters[a.Source()] = a
}

// Get returns the adapter for a source tag.
func (r *Registry) Get(source model.Source) (Adapter, error) {
	a, ok := r.adapters[source]
	if !ok {
		return nil, eris.Errorf("adapter: no adapter for source %q", source)
	}
	return a, nil
}

// Adapt runs the named source's adapter and stamps the record with the
// source's configured priority and the fetch timestamp.
func (r *Registry) Adapt(source model.Source, payload map[string]any, fetchedAt time.Time) (model.RawRecord, error) {
	a, err := r.Get(source)
	if err != nil {
		return model.RawRecord{}, err
	}
	raw, err := a.Adapt(payload)
	if err != nil {
		return model.RawRecord{}, eris.Wrapf(err, "adapter: %s", source)
	}
	raw.Source = source
	raw.Priority = r.priorities[source]
	raw.FetchedAt = fetchedAt
	raw.Payload = payload
	return raw, nil
}

// Payload accessors shared by the adapters. Missing or mistyped keys yield
// zero values; the builder reports anything that matters.

func getString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func getFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(v, ".", ""), ",", "."), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func getMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

// timeLayouts are the formats the portals emit, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

func getTime(m map[string]any, key string) time.Time {
	s := getString(m, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func getTimePtr(m map[string]any, key string) *time.Time {
	t := getTime(m, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func getFloatPtr(m map[string]any, key string) *float64 {
	if _, ok := m[key]; !ok {
		return nil
	}
	f := getFloat(m, key)
	if f == 0 {
		return nil
	}
	return &f
}
