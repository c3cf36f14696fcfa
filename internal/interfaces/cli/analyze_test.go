package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
)

func TestAnalyzeCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"SERVICE AGREEMENT\n\nThe Contractor shall provide services. The Client shall pay all invoices within thirty days.",
	), 0o600))

	cmd := newAnalyzeCommand(&rootOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "heuristic", report.Provider)
	assert.NotEmpty(t, report.Clauses)
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	cmd := newAnalyzeCommand(&rootOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(bytes.NewBufferString("The parties shall keep all information confidential."))
	cmd.SetArgs([]string{"-"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "classification")
}

func TestAnalyzeCommand_EmptyInput(t *testing.T) {
	cmd := newAnalyzeCommand(&rootOptions{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(""))
	cmd.SetArgs([]string{"-"})
	assert.Error(t, cmd.Execute())
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "worker")
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "analyze")
}
