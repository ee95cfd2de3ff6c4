package cluster

import "fmt"

// ClusterMode selects which ResourceManager provider a task manager
// process runs under.
type ClusterMode uint8

const (
	ClusterModeLocal ClusterMode = iota
	ClusterModeStandalone
	ClusterModeYARN
)

func (m ClusterMode) String() string {
	switch m {
	case ClusterModeLocal:
		return "Local"
	case ClusterModeStandalone:
		return "Standalone"
	case ClusterModeYARN:
		return "YARN"
	default:
		return "Unknown"
	}
}

// ParseClusterMode parses the config string form of a ClusterMode.
func ParseClusterMode(s string) (ClusterMode, error) {
	switch s {
	case "local", "Local":
		return ClusterModeLocal, nil
	case "standalone", "Standalone":
		return ClusterModeStandalone, nil
	case "yarn", "YARN", "Yarn":
		return ClusterModeYARN, nil
	default:
		return 0, fmt.Errorf("cluster: unknown cluster mode %q", s)
	}
}

// MetadataStorageMode selects which MetadataStorage provider a job runs
// under.
type MetadataStorageMode uint8

const (
	MetadataStorageModeMemory MetadataStorageMode = iota
	MetadataStorageModeEtcd
	MetadataStorageModeZookeeper
)

func (m MetadataStorageMode) String() string {
	switch m {
	case MetadataStorageModeMemory:
		return "Memory"
	case MetadataStorageModeEtcd:
		return "Etcd"
	case MetadataStorageModeZookeeper:
		return "Zookeeper"
	default:
		return "Unknown"
	}
}

// ParseMetadataStorageMode parses the config string form of a
// MetadataStorageMode. An unrecognized value is a config error.
func ParseMetadataStorageMode(s string) (MetadataStorageMode, error) {
	switch s {
	case "", "memory", "Memory":
		return MetadataStorageModeMemory, nil
	case "etcd", "Etcd":
		return MetadataStorageModeEtcd, nil
	case "zookeeper", "Zookeeper":
		return MetadataStorageModeZookeeper, nil
	default:
		return 0, fmt.Errorf("cluster: unknown metadata storage mode %q", s)
	}
}
