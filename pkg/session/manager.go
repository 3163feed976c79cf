package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/qret/internal/logging"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/aretw0/qret/pkg/store"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store   ports.SnapshotStore
	catalog ports.Catalog
	tree    *domain.Tree

	mu    sync.Mutex            // Global lock for the maps below
	locks map[string]*lockEntry // Map of active locks
	memos map[string]*domain.Memo

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	guard   PhaseGuard
	hooks   domain.Hooks
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTree sets the interaction tree used to resolve clicked ids.
func WithTree(tree *domain.Tree) Option {
	return func(m *Manager) {
		m.tree = tree
	}
}

// WithHooks registers observability callbacks. Repeated calls accumulate.
func WithHooks(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithPhaseGuard installs a validator consulted before every phase change.
func WithPhaseGuard(guard PhaseGuard) Option {
	return func(m *Manager) {
		m.guard = guard
	}
}

// WithClock overrides time.Now for snapshot and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store
// and price catalog.
func NewManager(snapshots ports.SnapshotStore, catalog ports.Catalog, opts ...Option) *Manager {
	m := &Manager{
		store:   snapshots,
		catalog: catalog,
		locks:   make(map[string]*lockEntry),
		memos:   make(map[string]*domain.Memo),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) memo(sessionID string) *domain.Memo {
	m.mu.Lock()
	defer m.mu.Unlock()

	memo, ok := m.memos[sessionID]
	if !ok {
		memo = &domain.Memo{}
		m.memos[sessionID] = memo
	}
	return memo
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start loads a session, creating and persisting a clean one if it does not exist yet.
func (m *Manager) Start(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		snap = domain.NewSnapshot(sessionID)
		snap.UpdatedAt = m.now()

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("session started", "session_id", sessionID)
		return nil
	})
	return snap, err
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
	if err == nil {
		m.mu.Lock()
		delete(m.memos, sessionID)
		m.mu.Unlock()
	}
	return err
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Catalog returns the price catalog.
func (m *Manager) Catalog() ports.Catalog {
	return m.catalog
}

// Tree returns the interaction tree, or nil when clicks carry their own paths.
func (m *Manager) Tree() *domain.Tree {
	return m.tree
}

// Update runs fn against the session's screen under the session lock and
// persists the result. Nothing is saved when fn fails. The returned
// snapshot is the stored one.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*store.Screen) error) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		screen := store.FromSnapshot(current, m.catalog, m.tree)
		if err := fn(screen); err != nil {
			return err
		}

		snap = screen.Snapshot(sessionID, m.now())
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (m *Manager) base(sessionID string, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.now(), Type: t, SessionID: sessionID}
}

// Click resolves targetID through the tree and applies it.
func (m *Manager) Click(ctx context.Context, sessionID, targetID string) (*domain.Snapshot, domain.Effect, error) {
	var eff domain.Effect
	snap, err := m.Update(ctx, sessionID, func(s *store.Screen) error {
		var err error
		eff, err = s.Click(targetID)
		return err
	})
	if err != nil {
		return nil, eff, err
	}
	m.clicked(ctx, sessionID, targetID, eff)
	return snap, eff, nil
}

// ClickPath applies a click whose bubbling path the host resolved itself.
func (m *Manager) ClickPath(ctx context.Context, sessionID string, click domain.Click, path ...domain.Node) (*domain.Snapshot, domain.Effect, error) {
	var eff domain.Effect
	snap, err := m.Update(ctx, sessionID, func(s *store.Screen) error {
		eff = s.ClickPath(click, path...)
		return nil
	})
	if err != nil {
		return nil, eff, err
	}
	m.clicked(ctx, sessionID, click.TargetID, eff)
	return snap, eff, nil
}

func (m *Manager) clicked(ctx context.Context, sessionID, targetID string, eff domain.Effect) {
	m.logger.Debug("click handled", "session_id", sessionID, "target", targetID, "op", eff.Op)
	if m.hooks.OnClick != nil {
		m.hooks.OnClick(ctx, &domain.ClickEvent{
			EventBase: m.base(sessionID, domain.EventClick),
			TargetID:  targetID,
			Effect:    eff,
		})
	}
}

// AdvancePhase moves the session to next, resetting its transient state.
// A configured guard may refuse with domain.ErrPhaseRejected.
func (m *Manager) AdvancePhase(ctx context.Context, sessionID string, next domain.Phase) (*domain.Snapshot, error) {
	var from domain.Phase
	snap, err := m.Update(ctx, sessionID, func(s *store.Screen) error {
		if !next.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrUnknownPhase, next)
		}
		from = s.Transaction.CurrentPhase()
		if m.guard != nil {
			if err := m.guard(from, next, s.Transaction.Transaction()); err != nil {
				return fmt.Errorf("%w: %s -> %s: %v", domain.ErrPhaseRejected, from, next, err)
			}
		}
		return s.Transaction.AdvancePhase(next)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("phase advanced", "session_id", sessionID, "from", from, "phase", next)
	if m.hooks.OnPhase != nil {
		m.hooks.OnPhase(ctx, &domain.PhaseEvent{
			EventBase: m.base(sessionID, domain.EventPhaseAdvance),
			From:      from,
			To:        next,
		})
	}
	return snap, nil
}

// NextPhase advances to the phase after the current one.
func (m *Manager) NextPhase(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	snap, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, ok := snap.Transaction.Phase.Next()
	if !ok {
		return nil, fmt.Errorf("%w: %s is the last phase", domain.ErrPhaseRejected, snap.Transaction.Phase)
	}
	return m.AdvancePhase(ctx, sessionID, next)
}

func (m *Manager) dispatch(ctx context.Context, sessionID string, slots []string, fn func(*store.TransactionStore) error) (*domain.Snapshot, error) {
	snap, err := m.Update(ctx, sessionID, func(s *store.Screen) error {
		return fn(s.Transaction)
	})
	if err != nil {
		return nil, err
	}
	if m.hooks.OnDispatch != nil {
		for _, slot := range slots {
			m.hooks.OnDispatch(ctx, &domain.DispatchEvent{
				EventBase: m.base(sessionID, domain.EventDispatch),
				Slot:      slot,
			})
		}
	}
	return snap, nil
}

// SetInput replaces the slot called name with a JSON value.
func (m *Manager) SetInput(ctx context.Context, sessionID, name string, raw json.RawMessage) (*domain.Snapshot, error) {
	return m.dispatch(ctx, sessionID, []string{name}, func(tx *store.TransactionStore) error {
		return tx.SetInputByName(name, raw)
	})
}

// AddInvoice attaches inv to the session's receipts.
func (m *Manager) AddInvoice(ctx context.Context, sessionID string, inv domain.Invoice) (*domain.Snapshot, error) {
	return m.dispatch(ctx, sessionID, []string{domain.SlotReceipts.Name()}, func(tx *store.TransactionStore) error {
		tx.AddInvoice(inv)
		return nil
	})
}

// RemoveInvoice detaches an invoice.
func (m *Manager) RemoveInvoice(ctx context.Context, sessionID, invoiceID string) (*domain.Snapshot, error) {
	return m.dispatch(ctx, sessionID, []string{domain.SlotReceipts.Name()}, func(tx *store.TransactionStore) error {
		tx.RemoveInvoice(invoiceID)
		return nil
	})
}

// SetQuantity sets the return quantity of an item.
func (m *Manager) SetQuantity(ctx context.Context, sessionID, itemID string, qty int) (*domain.Snapshot, error) {
	return m.dispatch(ctx, sessionID, []string{domain.SlotReturnItems.Name()}, func(tx *store.TransactionStore) error {
		tx.SetQuantity(itemID, qty)
		return nil
	})
}

// RemoveItem drops an item from the return.
func (m *Manager) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Snapshot, error) {
	return m.dispatch(ctx, sessionID, []string{domain.SlotReturnItems.Name()}, func(tx *store.TransactionStore) error {
		tx.RemoveItem(itemID)
		return nil
	})
}

// FastFill replaces both collections at once.
func (m *Manager) FastFill(ctx context.Context, sessionID string, invoices []domain.Invoice, items []domain.ReturnItem) (*domain.Snapshot, error) {
	slots := []string{domain.SlotReceipts.Name(), domain.SlotReturnItems.Name()}
	return m.dispatch(ctx, sessionID, slots, func(tx *store.TransactionStore) error {
		tx.FastFill(invoices, items)
		return nil
	})
}

// Refund derives the refund summary of a session. Results are memoised per
// session on the transaction content and catalog version.
func (m *Manager) Refund(ctx context.Context, sessionID string) (domain.Summary, error) {
	snap, err := m.Load(ctx, sessionID)
	if err != nil {
		return domain.Summary{}, err
	}

	tx := snap.Transaction
	atoms := m.memo(sessionID).Derive(tx, m.catalog, m.catalog.Version())
	sum := domain.SummarizeAtoms(tx, m.catalog, atoms)

	if m.hooks.OnDerive != nil {
		m.hooks.OnDerive(ctx, &domain.DeriveEvent{
			EventBase:        m.base(sessionID, domain.EventDerive),
			Atoms:            len(sum.Atoms),
			TotalValueCents:  sum.TotalValueCents,
			UnreceiptedQty:   sum.UnreceiptedQty,
			UnreceiptedCents: sum.UnreceiptedCents,
		})
	}
	return sum, nil
}
