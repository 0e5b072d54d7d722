package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/tendergov/tender-cli/internal/model"
)

func TestReadEnvelope(t *testing.T) {
	t.Parallel()

	input := `{
		"source": "pncp",
		"fetched_at": "2026-08-30T06:00:00Z",
		"records": [
			{"numeroControlePNCP": "x-1"},
			{"numeroControlePNCP": "x-2"}
		]
	}`

	env, source, err := ReadEnvelope(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, model.SourcePNCP, source)
	assert.Len(t, env.Records, 2)
	assert.Equal(t, "x-1", env.Records[0]["numeroControlePNCP"])
	assert.False(t, env.FetchedAt.IsZero())
}

func TestReadEnvelopeUnknownSource(t *testing.T) {
	t.Parallel()

	_, _, err := ReadEnvelope(strings.NewReader(
		`{"source": "mercadolivre", "fetched_at": "2026-08-30T06:00:00Z", "records": []}`))
	assert.Error(t, err)
}

func TestReadEnvelopeMissingFetchedAt(t *testing.T) {
	t.Parallel()

	_, _, err := ReadEnvelope(strings.NewReader(`{"source": "pncp", "records": []}`))
	assert.Error(t, err)
}

func TestReadEnvelopeBadJSON(t *testing.T) {
	t.Parallel()

	_, _, err := ReadEnvelope(strings.NewReader(`{"source": `))
	assert.Error(t, err)
}

func drainCSV(t *testing.T, rows <-chan map[string]any, errs <-chan error) []map[string]any {
	t.Helper()
	var out []map[string]any
	for row := range rows {
		out = append(out, row)
	}
	require.NoError(t, <-errs)
	return out
}

func TestStreamCSV(t *testing.T) {
	t.Parallel()

	input := "identificador, objeto ,uf\n" +
		"123, Aquisição de material ,SP\n" +
		"456,Serviços de limpeza\n"

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	out := drainCSV(t, rows, errs)

	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{
		"identificador": "123",
		"objeto":        "Aquisição de material",
		"uf":            "SP",
	}, out[0])

	// Short row: trailing columns stay absent rather than empty.
	assert.Equal(t, map[string]any{
		"identificador": "456",
		"objeto":        "Serviços de limpeza",
	}, out[1])
}

func TestStreamCSVCustomDelimiter(t *testing.T) {
	t.Parallel()

	input := "id;valor\n1;2.500,00\n"
	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: ';'})
	out := drainCSV(t, rows, errs)

	require.Len(t, out, 1)
	assert.Equal(t, "2.500,00", out[0]["valor"])
}

func TestStreamCSVEmptyInput(t *testing.T) {
	t.Parallel()

	rows, errs := StreamCSV(context.Background(), strings.NewReader(""), CSVOptions{})
	out := drainCSV(t, rows, errs)
	assert.Empty(t, out)
}

func TestStreamCSVCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, errs := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	for range rows {
	}
	assert.Error(t, <-errs)
}

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Planilha1")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{
		{"codigo", "objeto", "uf"},
		{"77", "Aquisição de medicamentos", "BA"},
		{"78", "Obras de pavimentação", "BA"},
	})

	payloads, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, "77", payloads[0]["codigo"])
	assert.Equal(t, "Obras de pavimentação", payloads[1]["objeto"])
}

func TestReadXLSXSheetByName(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{{"id"}, {"1"}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Inexistente"})
	assert.Error(t, err)

	payloads, err := ReadXLSX(path, XLSXOptions{SheetName: "Planilha1"})
	require.NoError(t, err)
	assert.Len(t, payloads, 1)
}

func TestReadXLSXMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
