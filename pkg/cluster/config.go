// Package cluster implements the external interfaces a task manager
// process uses to join a job: cluster-wide YAML configuration, the
// resource manager capability interface, metadata storage, and a small
// backoff-retry helper used at every call site that talks to that shared
// state.
package cluster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the cluster-wide configuration a task manager process loads
// at startup.
type Config struct {
	JobManagerAddress        []string `yaml:"job_manager_address"`
	MetadataStorageMode      string   `yaml:"metadata_storage_mode"`
	MetadataStorageEndpoints []string `yaml:"metadata_storage_endpoints"`
	TaskManagerBindIP        string   `yaml:"task_manager_bind_ip"`
	TaskManagerWorkDir       string   `yaml:"task_manager_work_dir"`
}

// LoadConfig reads and parses a cluster config file. Any error here --
// missing file, malformed YAML, or an unrecognized MetadataStorageMode --
// is returned for the caller to treat as fatal; LoadConfig itself never
// calls log.Fatal or panics.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cluster: read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cluster: parse config %s: %w", path, err)
	}

	if _, err := ParseMetadataStorageMode(cfg.MetadataStorageMode); err != nil {
		return nil, fmt.Errorf("cluster: config %s: %w", path, err)
	}

	return &cfg, nil
}
