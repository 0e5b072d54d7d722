package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tendergov/tender-cli/internal/adapter"
	"github.com/tendergov/tender-cli/internal/ingest"
	"github.com/tendergov/tender-cli/internal/model"
)

// loadBatches reads every input file and adapts its payloads into raw
// records. JSON envelopes carry their own source tag; CSV and XLSX exports
// need the --source flag.
func loadBatches(ctx context.Context, registry *adapter.Registry, paths []string, sourceFlag string) ([]model.RawRecord, error) {
	var raws []model.RawRecord
	for _, path := range paths {
		batch, err := loadBatch(ctx, registry, path, sourceFlag)
		if err != nil {
			return nil, err
		}
		raws = append(raws, batch...)
	}
	return raws, nil
}

func loadBatch(ctx context.Context, registry *adapter.Registry, path, sourceFlag string) ([]model.RawRecord, error) {
	log := zap.L().With(zap.String("file", path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		env, source, err := ingest.ReadEnvelopeFile(path)
		if err != nil {
			return nil, err
		}
		raws, err := adaptPayloads(registry, source, env.Records, env.FetchedAt)
		if err != nil {
			return nil, err
		}
		log.Info("loaded batch", zap.String("source", string(source)), zap.Int("records", len(raws)))
		return raws, nil

	case ".csv":
		source, fetchedAt, err := flatFileMeta(path, sourceFlag)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()

		var payloads []map[string]any
		rowCh, errCh := ingest.StreamCSV(ctx, f, ingest.CSVOptions{})
		for row := range rowCh {
			payloads = append(payloads, row)
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
		raws, err := adaptPayloads(registry, source, payloads, fetchedAt)
		if err != nil {
			return nil, err
		}
		log.Info("loaded batch", zap.String("source", string(source)), zap.Int("records", len(raws)))
		return raws, nil

	case ".xlsx":
		source, fetchedAt, err := flatFileMeta(path, sourceFlag)
		if err != nil {
			return nil, err
		}
		payloads, err := ingest.ReadXLSX(path, ingest.XLSXOptions{})
		if err != nil {
			return nil, err
		}
		raws, err := adaptPayloads(registry, source, payloads, fetchedAt)
		if err != nil {
			return nil, err
		}
		log.Info("loaded batch", zap.String("source", string(source)), zap.Int("records", len(raws)))
		return raws, nil

	default:
		return nil, eris.Errorf("unsupported batch file extension: %s", path)
	}
}

func adaptPayloads(registry *adapter.Registry, source model.Source, payloads []map[string]any, fetchedAt time.Time) ([]model.RawRecord, error) {
	raws := make([]model.RawRecord, 0, len(payloads))
	for _, payload := range payloads {
		raw, err := registry.Adapt(source, payload, fetchedAt)
		if err != nil {
			// A malformed payload is a diagnostic, not a batch failure.
			zap.L().Warn("skipping payload", zap.String("source", string(source)), zap.Error(err))
			continue
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// flatFileMeta resolves the source tag and fetch time for CSV/XLSX exports,
// which carry neither: the tag comes from --source, the fetch time from the
// file's modification time.
func flatFileMeta(path, sourceFlag string) (model.Source, time.Time, error) {
	if sourceFlag == "" {
		return "", time.Time{}, eris.Errorf("--source is required for %s", filepath.Ext(path))
	}
	source, err := model.ParseSource(sourceFlag)
	if err != nil {
		return "", time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", time.Time{}, eris.Wrapf(err, "stat %s", path)
	}
	return source, info.ModTime(), nil
}
