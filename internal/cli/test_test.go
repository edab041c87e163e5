package cli

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_PassingScenario(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenario.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ investimentos-cli")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestTest_FailingScenarioExitsOne(t *testing.T) {
	schemaAbs, err := filepath.Abs("testdata/defaults.json")
	require.NoError(t, err)

	scenario := writeFile(t, t.TempDir(), "falha.yaml", fmt.Sprintf(`name: falha
description: expectativa impossível
schema: %s
table:
  tableId: falha
  columns:
    - { name: item, label: Item, type: text }
steps:
  - action: add
    data: { item: A }
expect:
  rowCount: 9
`, schemaAbs))

	out, err := execute(t, "test", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ falha")
	assert.Contains(t, out, "rowCount: expected 9, got 1")
	assert.Contains(t, out, "0 passed, 1 failed")
}

func TestTest_MalformedScenarioIsCommandError(t *testing.T) {
	scenario := writeFile(t, t.TempDir(), "quebrado.yaml", "name: só-nome\n")
	_, err := execute(t, "test", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
