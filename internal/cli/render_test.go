package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Skeleton(t *testing.T) {
	out, err := execute(t, "render", "testdata/investimentos.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, `data-table-id="investimentos"`)
	assert.Contains(t, out, `id="investimentos"`)
	assert.Contains(t, out, "Descrição")
	assert.Contains(t, out, "Adicionar linha")
	// Totals footer enabled by the definition.
	assert.Contains(t, out, "<tfoot>")
	// No rows yet.
	assert.NotContains(t, out, "data-row-id")
}

func TestRender_WithData(t *testing.T) {
	out, err := execute(t, "render", "testdata/investimentos.yaml",
		"--data", "testdata/snapshot.json")
	require.NoError(t, err)

	assert.Contains(t, out, `data-row-id="row-1"`)
	assert.Contains(t, out, `data-row-id="row-2"`)
	assert.Contains(t, out, "Notebook")
	assert.Contains(t, out, `data-column="total"`)
}

func TestRender_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	out, err := execute(t, "render", "testdata/investimentos.yaml", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `data-table-id="investimentos"`)
}
