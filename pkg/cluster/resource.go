package cluster

import "fmt"

// Resource describes a worker allocation's requested footprint.
type Resource struct {
	MemoryMB uint32
	CPUCores uint32
}

// TaskResourceInfo identifies one allocated worker slot. A concrete
// ResourceManager may stash provider-specific values into ResourceInfo
// (e.g. a YARN container ID), which shadows the top-level fields:
// GetTaskID/GetTaskManagerAddress prefer those over the struct's own
// fields.
type TaskResourceInfo struct {
	TaskID             string            `json:"task_id"`
	TaskManagerAddress string            `json:"task_manager_address"`
	TaskManagerID      string            `json:"task_manager_id"`
	ResourceInfo       map[string]string `json:"resource_info"`
}

// NewTaskResourceInfo constructs a TaskResourceInfo for the standalone
// provider, seeding ResourceInfo with the same two fields so
// GetTaskID/GetTaskManagerAddress agree with the struct fields until a
// provider overrides them.
func NewTaskResourceInfo(taskID, taskManagerAddress, taskManagerID string) TaskResourceInfo {
	return TaskResourceInfo{
		TaskID:             taskID,
		TaskManagerAddress: taskManagerAddress,
		TaskManagerID:      taskManagerID,
		ResourceInfo: map[string]string{
			"task_id":             taskID,
			"task_manager_address": taskManagerAddress,
		},
	}
}

// GetTaskID prefers the ResourceInfo override, falling back to TaskID.
func (t TaskResourceInfo) GetTaskID() string {
	if v, ok := t.ResourceInfo["task_id"]; ok {
		return v
	}
	return t.TaskID
}

// GetTaskManagerAddress prefers the ResourceInfo override, falling back
// to TaskManagerAddress.
func (t TaskResourceInfo) GetTaskManagerAddress() string {
	if v, ok := t.ResourceInfo["task_manager_address"]; ok {
		return v
	}
	return t.TaskManagerAddress
}

// JobDescriptor is the minimal job-level metadata a ResourceManager needs
// to prepare and allocate workers for.
type JobDescriptor struct {
	JobID        string
	TaskManagers []string
}

// ResourceManager is a capability interface with one runtime-selected
// concrete provider per ClusterMode, rather than a closed tagged union,
// since resource providers are the kind of thing a deployment adds its
// own implementation of.
type ResourceManager interface {
	Prepare(job JobDescriptor) error
	WorkerAllocate(requested int, resource Resource) ([]TaskResourceInfo, error)
	StopWorkers(tasks []TaskResourceInfo) error
}

// NewResourceManager selects the concrete provider for mode.
func NewResourceManager(mode ClusterMode, cfg Config) (ResourceManager, error) {
	switch mode {
	case ClusterModeLocal:
		return &LocalResourceManager{}, nil
	case ClusterModeStandalone:
		return &StandaloneResourceManager{addresses: cfg.JobManagerAddress}, nil
	case ClusterModeYARN:
		return &YARNResourceManager{}, nil
	default:
		return nil, fmt.Errorf("cluster: unsupported cluster mode %v", mode)
	}
}

// LocalResourceManager runs every task in the task manager's own
// process: Prepare and StopWorkers are no-ops, and WorkerAllocate returns
// one TaskResourceInfo per requested task addressed at "local".
type LocalResourceManager struct{}

func (r *LocalResourceManager) Prepare(JobDescriptor) error { return nil }

func (r *LocalResourceManager) WorkerAllocate(requested int, _ Resource) ([]TaskResourceInfo, error) {
	out := make([]TaskResourceInfo, requested)
	for i := range out {
		out[i] = NewTaskResourceInfo(fmt.Sprintf("local-task-%d", i), "local", "local")
	}
	return out, nil
}

func (r *LocalResourceManager) StopWorkers([]TaskResourceInfo) error { return nil }

// StandaloneResourceManager allocates tasks onto a fixed, pre-registered
// pool of task manager addresses, round-robin.
type StandaloneResourceManager struct {
	addresses []string
}

func (r *StandaloneResourceManager) Prepare(JobDescriptor) error {
	if len(r.addresses) == 0 {
		return fmt.Errorf("cluster: standalone resource manager has no task manager addresses")
	}
	return nil
}

func (r *StandaloneResourceManager) WorkerAllocate(requested int, _ Resource) ([]TaskResourceInfo, error) {
	if len(r.addresses) == 0 {
		return nil, fmt.Errorf("cluster: standalone resource manager has no task manager addresses")
	}
	out := make([]TaskResourceInfo, requested)
	for i := range out {
		addr := r.addresses[i%len(r.addresses)]
		out[i] = NewTaskResourceInfo(fmt.Sprintf("task-%d", i), addr, addr)
	}
	return out, nil
}

func (r *StandaloneResourceManager) StopWorkers([]TaskResourceInfo) error { return nil }

// YARNResourceManager is a placeholder provider: YARN is a selectable
// ClusterMode without requiring a working YARN client in this module.
type YARNResourceManager struct{}

func (r *YARNResourceManager) Prepare(JobDescriptor) error {
	return fmt.Errorf("cluster: YARN resource manager is not implemented")
}

func (r *YARNResourceManager) WorkerAllocate(int, Resource) ([]TaskResourceInfo, error) {
	return nil, fmt.Errorf("cluster: YARN resource manager is not implemented")
}

func (r *YARNResourceManager) StopWorkers([]TaskResourceInfo) error {
	return fmt.Errorf("cluster: YARN resource manager is not implemented")
}
