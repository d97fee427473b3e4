// Package transaction provides the cache lock and the batch journal that
// gearbox keeps while it installs or removes tools.
//
// A journal records the per-tool state of one batch. It is rewritten
// atomically after every state change and deleted when the batch ends, so a
// journal left on disk means a batch was interrupted.
package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JournalDirName is the journal directory inside the cache directory.
const JournalDirName = "journal"

// State represents the state of a tool within a batch.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// Operation is the kind of batch.
type Operation string

const (
	OperationInstall Operation = "install"
	OperationRemove  Operation = "remove"
)

// BatchTxn is the journal of one install or remove batch. Its methods are
// safe for concurrent use by batch workers.
type BatchTxn struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	Tools     []ToolTxn `json:"tools"`

	mu  sync.Mutex
	dir string
}

// ToolTxn is the journal entry for one tool.
type ToolTxn struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	State     State  `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

// New creates a journal for op over the named tools. paths maps tool names
// to their install locations.
func New(op Operation, names []string, paths map[string]string) *BatchTxn {
	tools := make([]ToolTxn, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolTxn{Name: name, Path: paths[name], State: StatePending})
	}
	return &BatchTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Operation: op,
		Timestamp: time.Now().UTC(),
		Tools:     tools,
	}
}

// FileName returns the journal file name, <op>-<id>.json.
func (t *BatchTxn) FileName() string {
	return fmt.Sprintf("%s-%s.json", t.Operation, t.ID)
}

// Save writes the journal into dir atomically and remembers dir for later
// updates.
func (t *BatchTxn) Save(dir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dir = dir
	return t.saveLocked()
}

func (t *BatchTxn) saveLocked() error {
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(t.dir, t.FileName())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	// Sync directory for durability
	if df, err := os.Open(t.dir); err == nil {
		syncErr := df.Sync()
		df.Close()
		if syncErr != nil {
			return fmt.Errorf("sync directory: %w", syncErr)
		}
	}
	return nil
}

// Update records a tool's new state and persists the journal when it has
// been saved before.
func (t *BatchTxn) Update(name string, state State, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.Tools {
		if t.Tools[i].Name != name {
			continue
		}
		t.Tools[i].State = state
		t.Tools[i].LastError = ""
		if err != nil {
			t.Tools[i].LastError = err.Error()
		}
		break
	}
	if t.dir == "" {
		return nil
	}
	return t.saveLocked()
}

// Snapshot returns a copy of the tool entries.
func (t *BatchTxn) Snapshot() []ToolTxn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ToolTxn, len(t.Tools))
	copy(out, t.Tools)
	return out
}

// Unfinished returns the tools still pending, in progress or failed.
func (t *BatchTxn) Unfinished() []ToolTxn {
	var out []ToolTxn
	for _, tool := range t.Snapshot() {
		switch tool.State {
		case StatePending, StateInProgress, StateFailed:
			out = append(out, tool)
		}
	}
	return out
}

// Discard deletes the saved journal file.
func (t *BatchTxn) Discard() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dir == "" {
		return nil
	}
	err := os.Remove(filepath.Join(t.dir, t.FileName()))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove journal: %w", err)
	}
	return nil
}

// Load reads a journal from disk.
func Load(path string) (*BatchTxn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}
	var txn BatchTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}
	txn.dir = filepath.Dir(path)
	return &txn, nil
}

// Leftovers loads every journal in dir, oldest first. A missing directory
// yields none.
func Leftovers(dir string) ([]*BatchTxn, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	var out []*BatchTxn
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		txn, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
