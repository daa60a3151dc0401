// Package checkpoint keeps the state needed to undo an apply until it is
// committed, rolled back or times out.
package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// IDPrefix starts every checkpoint id.
const IDPrefix = "/nmstate/checkpoint/"

// DefaultTimeout is the rollback timeout used when none is requested.
const DefaultTimeout = 60 * time.Second

// Checkpoint holds the revert state of one apply.
type Checkpoint struct {
	ID      string              `json:"id"`
	Created time.Time           `json:"created"`
	Timeout time.Duration       `json:"timeout"`
	Revert  *state.NetworkState `json:"revert"`
	Desired *state.NetworkState `json:"desired,omitempty"`
}

// Expires returns when the checkpoint rolls back on its own. The zero time
// means never.
func (c *Checkpoint) Expires() time.Time {
	if c.Timeout <= 0 {
		return time.Time{}
	}
	return c.Created.Add(c.Timeout)
}

// RollbackFunc re-applies a revert state.
type RollbackFunc func(ctx context.Context, revert *state.NetworkState) error

// Manager holds at most one checkpoint. Commit, rollback and expiry are
// serialized by the manager mutex. With a persistence directory the
// checkpoint file is the claim: whoever removes it commits, rolls back or
// expires the checkpoint, so two processes never act on the same one.
type Manager struct {
	mu       sync.Mutex
	current  *Checkpoint
	timer    *time.Timer
	rollback RollbackFunc
	dir      string
	now      func() time.Time
	// outer is taken before mu when the timer fires.
	outer sync.Locker
}

// NewManager creates a manager rolling back through rollback. A non-empty dir
// persists checkpoints so another process can commit or roll them back.
func NewManager(rollback RollbackFunc, dir string) *Manager {
	return &Manager{
		rollback: rollback,
		dir:      dir,
		now:      time.Now,
	}
}

// SetLocker makes expiry take l before touching the checkpoint. Callers
// holding l while changing the network can't race with an automatic
// rollback.
func (m *Manager) SetLocker(l sync.Locker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outer = l
}

// Create stores a checkpoint. Its timeout only starts counting once Start is
// called.
func (m *Manager) Create(revert, desired *state.NetworkState, timeout time.Duration) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, errors.Newf(errors.KindInvalidArgument, "another checkpoint exists: %s", m.current.ID)
	}
	if revert == nil {
		return nil, errors.NewBug("checkpoint requires a revert state", nil)
	}

	cp := &Checkpoint{
		ID:      IDPrefix + uuid.New().String(),
		Created: m.now().UTC(),
		Timeout: timeout,
		Revert:  revert.Clone(),
		Desired: desired.Clone(),
	}
	if err := m.save(cp); err != nil {
		return nil, err
	}
	m.current = cp
	log.Infof("Checkpoint %s created", cp.ID)
	return cp, nil
}

// Start begins the timeout of a created checkpoint. With a positive timeout
// the revert state is applied automatically once it expires.
func (m *Manager) Start(id string) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, err := m.resolve(id)
	if err != nil {
		return nil, err
	}
	if !m.persisted(cp) {
		m.forget()
		return nil, errors.Newf(errors.KindInvalidArgument, "checkpoint %s was discarded by another process", cp.ID)
	}
	started := *cp
	started.Created = m.now().UTC()
	if err := m.save(&started); err != nil {
		return nil, err
	}
	m.current = &started
	m.arm(&started, started.Timeout)
	return &started, nil
}

// Current returns the active checkpoint or nil.
func (m *Manager) Current() *Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Commit discards the checkpoint. An empty id selects the active one.
func (m *Manager) Commit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, err := m.resolve(id)
	if err != nil {
		return err
	}
	if !m.discard(cp) {
		return errors.Newf(errors.KindInvalidArgument, "checkpoint %s does not exist", cp.ID)
	}
	log.Infof("Checkpoint %s committed", cp.ID)
	return nil
}

// Rollback applies the revert state and discards the checkpoint. An empty id
// selects the active one.
func (m *Manager) Rollback(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, err := m.resolve(id)
	if err != nil {
		return err
	}
	if !m.discard(cp) {
		return errors.Newf(errors.KindInvalidArgument, "checkpoint %s does not exist", cp.ID)
	}
	log.Infof("Rolling back checkpoint %s", cp.ID)
	if err := m.rollback(ctx, cp.Revert); err != nil {
		return errors.Wrap(errors.KindOf(err), "rollback of "+cp.ID+" failed", err)
	}
	return nil
}

// Restore loads persisted checkpoints. Expired ones are rolled back at once,
// the others get a timer for their remaining time.
func (m *Manager) Restore(ctx context.Context) error {
	if m.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.NewPluginFailure("failed to read checkpoint directory "+m.dir, err)
	}

	var loaded []*Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.NewPluginFailure("failed to read checkpoint "+path, err)
		}
		cp := &Checkpoint{}
		if err := json.Unmarshal(data, cp); err != nil {
			log.Warnf("Removing unreadable checkpoint %s: %v", path, err)
			os.Remove(path)
			continue
		}
		loaded = append(loaded, cp)
	}
	if len(loaded) == 0 {
		return nil
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Created.Before(loaded[j].Created) })

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return errors.Newf(errors.KindInvalidArgument, "another checkpoint exists: %s", m.current.ID)
	}

	// Only the newest checkpoint can be meaningful, older ones are stale.
	for _, stale := range loaded[:len(loaded)-1] {
		log.Warnf("Dropping stale checkpoint %s", stale.ID)
		m.remove(stale)
	}
	cp := loaded[len(loaded)-1]
	m.current = cp

	expires := cp.Expires()
	if expires.IsZero() {
		return nil
	}
	remaining := expires.Sub(m.now())
	if remaining > 0 {
		m.arm(cp, remaining)
		return nil
	}
	if !m.discard(cp) {
		return nil
	}
	log.Warnf("Checkpoint %s expired at %s", cp.ID, expires.Format(time.RFC3339))
	if err := m.rollback(ctx, cp.Revert); err != nil {
		return errors.Wrap(errors.KindOf(err), "rollback of expired "+cp.ID+" failed", err)
	}
	return nil
}

// Close stops the timer of the active checkpoint, leaving it persisted.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) resolve(id string) (*Checkpoint, error) {
	if m.current == nil {
		return nil, errors.New(errors.KindInvalidArgument, "no checkpoint exists")
	}
	if id != "" && id != m.current.ID && IDPrefix+id != m.current.ID {
		return nil, errors.Newf(errors.KindInvalidArgument, "checkpoint %s does not exist", id)
	}
	return m.current, nil
}

func (m *Manager) arm(cp *Checkpoint, after time.Duration) {
	if after <= 0 {
		return
	}
	m.timer = time.AfterFunc(after, func() { m.expire(cp.ID) })
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	outer := m.outer
	m.mu.Unlock()
	if outer != nil {
		outer.Lock()
		defer outer.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Committed or rolled back while the timer fired.
	if m.current == nil || m.current.ID != id {
		return
	}
	cp := m.current
	if !m.discard(cp) {
		log.Debugf("Checkpoint %s was settled by another process", cp.ID)
		return
	}
	log.Warnf("Checkpoint %s timed out, rolling back", cp.ID)
	if err := m.rollback(context.Background(), cp.Revert); err != nil {
		log.Errorf("Automatic rollback of %s failed: %v", cp.ID, err)
	}
}

// discard forgets cp and removes its file. It reports false when the file
// was already gone, meaning another process settled the checkpoint. Called
// with the mutex held.
func (m *Manager) discard(cp *Checkpoint) bool {
	m.forget()
	if m.dir == "" {
		return true
	}
	err := os.Remove(m.path(cp))
	if os.IsNotExist(err) {
		return false
	} else if err != nil {
		log.Warnf("Failed to remove checkpoint file %s: %v", m.path(cp), err)
	}
	return true
}

func (m *Manager) forget() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.current = nil
}

func (m *Manager) persisted(cp *Checkpoint) bool {
	if m.dir == "" {
		return true
	}
	_, err := os.Stat(m.path(cp))
	return !os.IsNotExist(err)
}

func (m *Manager) path(cp *Checkpoint) string {
	return filepath.Join(m.dir, strings.TrimPrefix(cp.ID, IDPrefix)+".json")
}

func (m *Manager) save(cp *Checkpoint) error {
	if m.dir == "" {
		return nil
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return errors.NewPluginFailure("failed to create checkpoint directory "+m.dir, err)
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return errors.NewBug("failed to encode checkpoint", err)
	}
	if err := os.WriteFile(m.path(cp), data, 0600); err != nil {
		return errors.NewPluginFailure("failed to persist checkpoint", err)
	}
	return nil
}

func (m *Manager) remove(cp *Checkpoint) {
	if m.dir == "" {
		return
	}
	if err := os.Remove(m.path(cp)); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove checkpoint file %s: %v", m.path(cp), err)
	}
}
