package cluster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
job_manager_address: ["10.0.0.1:1000"]
metadata_storage_mode: Memory
task_manager_bind_ip: "0.0.0.0"
task_manager_work_dir: "/var/lib/rlink"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:1000"}, cfg.JobManagerAddress)
	assert.Equal(t, "/var/lib/rlink", cfg.TaskManagerWorkDir)
}

func TestLoadConfigUnknownMetadataModeIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
metadata_storage_mode: Cassandra
`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/cluster.yaml")
	assert.Error(t, err)
}
