package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is one cluster's terraform working directory. Terraform
// keeps mutable local state here, so entering it concurrently from two
// operations corrupts that state.
type Workspace struct {
	Cluster string
	Dir     string
}

// workspaces serializes access per cluster name. The lock is
// in-process; a single engine instance owns the state directory.
type workspaces struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWorkspaces(root string) *workspaces {
	return &workspaces{root: root, locks: make(map[string]*sync.Mutex)}
}

func (w *workspaces) acquire(cluster string) (*Workspace, func(), error) {
	w.mu.Lock()
	lock, ok := w.locks[cluster]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[cluster] = lock
	}
	w.mu.Unlock()

	lock.Lock()

	dir := filepath.Join(w.root, cluster)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		lock.Unlock()
		return nil, nil, fmt.Errorf("failed to create workspace for %s: %w", cluster, err)
	}

	return &Workspace{Cluster: cluster, Dir: dir}, lock.Unlock, nil
}
