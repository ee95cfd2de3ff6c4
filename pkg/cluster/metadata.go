package cluster

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTaskManagerNotFound is returned by UpdateTaskStatus when no task
// manager in the current job descriptor matches the given ID.
var ErrTaskManagerNotFound = errors.New("cluster: task manager metadata not found")

// ErrJobDescriptorNotFound is returned by a read or update while no job
// descriptor is held: before any SaveJobDescriptor has succeeded, or
// after DeleteJobDescriptor.
var ErrJobDescriptorNotFound = errors.New("cluster: job descriptor not found")

// TaskManagerStatus is the lifecycle state of one registered task manager.
type TaskManagerStatus uint8

const (
	TaskManagerStatusRegistered TaskManagerStatus = iota
	TaskManagerStatusRunning
	TaskManagerStatusTerminated
)

// TaskManagerDescriptor is one task manager's entry in a JobStatusDescriptor.
type TaskManagerDescriptor struct {
	TaskManagerID      string
	TaskManagerAddress string
	MetricsAddress     string
	TaskStatus         TaskManagerStatus
	LatestHeartBeatTS  int64
}

// JobStatusDescriptor is the mutable job-wide metadata a MetadataStorage
// holds: the job's own status plus every registered task manager's.
type JobStatusDescriptor struct {
	JobID        string
	JobStatus    TaskManagerStatus
	TaskManagers []TaskManagerDescriptor
}

// MetadataStorage is the shared, coordinator-visible store of job and
// task manager status. Memory is the only backend implemented in this
// module; Etcd and Zookeeper are reserved modes that parse but are
// rejected at construction (see NewMetadataStorage).
type MetadataStorage interface {
	SaveJobDescriptor(job JobStatusDescriptor) error
	DeleteJobDescriptor() error
	ReadJobDescriptor() (JobStatusDescriptor, error)
	UpdateJobStatus(status TaskManagerStatus) error
	UpdateTaskStatus(taskManagerID, taskManagerAddress string, status TaskManagerStatus, metricsAddress string) error
}

// NewMetadataStorage selects the concrete MetadataStorage for mode.
func NewMetadataStorage(mode MetadataStorageMode, log *zap.SugaredLogger) (MetadataStorage, error) {
	switch mode {
	case MetadataStorageModeMemory:
		return NewMemoryMetadataStorage(log), nil
	case MetadataStorageModeEtcd:
		return nil, errors.New("cluster: etcd metadata storage is not implemented")
	case MetadataStorageModeZookeeper:
		return nil, errors.New("cluster: zookeeper metadata storage is not implemented")
	default:
		return nil, errors.New("cluster: unknown metadata storage mode")
	}
}

// MemoryMetadataStorage holds the job descriptor in a process-local
// mutex-guarded slot. It takes an explicit constructor and an
// injectable logger rather than exposing a package-level instance, so
// ownership of its state stays with whoever constructs it.
type MemoryMetadataStorage struct {
	mu  sync.Mutex
	job *JobStatusDescriptor
	log *zap.SugaredLogger
}

// NewMemoryMetadataStorage constructs an empty in-memory metadata store.
func NewMemoryMetadataStorage(log *zap.SugaredLogger) *MemoryMetadataStorage {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MemoryMetadataStorage{log: log}
}

func (m *MemoryMetadataStorage) SaveJobDescriptor(job JobStatusDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.TaskManagers = append([]TaskManagerDescriptor(nil), job.TaskManagers...)
	m.job = &job
	m.log.Debugw("saved job descriptor", "job", m.job)
	return nil
}

// DeleteJobDescriptor clears the held descriptor, logging it before
// clearing so the log line still has a descriptor to report.
func (m *MemoryMetadataStorage) DeleteJobDescriptor() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log.Debugw("deleting job descriptor", "job", m.job)
	m.job = nil
	return nil
}

func (m *MemoryMetadataStorage) ReadJobDescriptor() (JobStatusDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return JobStatusDescriptor{}, ErrJobDescriptorNotFound
	}
	return *m.job, nil
}

func (m *MemoryMetadataStorage) UpdateJobStatus(status TaskManagerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return ErrJobDescriptorNotFound
	}
	m.job.JobStatus = status
	return nil
}

func (m *MemoryMetadataStorage) UpdateTaskStatus(taskManagerID, taskManagerAddress string, status TaskManagerStatus, metricsAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job == nil {
		return ErrJobDescriptorNotFound
	}
	for i := range m.job.TaskManagers {
		tm := &m.job.TaskManagers[i]
		if tm.TaskManagerID == taskManagerID {
			tm.TaskManagerAddress = taskManagerAddress
			tm.TaskStatus = status
			tm.MetricsAddress = metricsAddress
			tm.LatestHeartBeatTS = time.Now().UnixMilli()
			m.log.Debugw("updated task manager metadata", "taskManagerID", taskManagerID)
			return nil
		}
	}
	m.log.Errorw("task manager metadata not found", "taskManagerID", taskManagerID)
	return ErrTaskManagerNotFound
}
