package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmdJSONOnFreshDataDir(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".memoria.yaml"), []byte("dataDir: "+dataDir+"\n"), 0o644))

	cmd := newStatsCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	cmd.SetArgs([]string{"--dir", dir, "--json"})

	require.NoError(t, cmd.Execute())

	var stats struct {
		ChunkCount   int `json:"ChunkCount"`
		IndexedCount int `json:"IndexedCount"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &stats))
	assert.Equal(t, 0, stats.ChunkCount)
	assert.Equal(t, 0, stats.IndexedCount)
}
