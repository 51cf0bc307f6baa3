// Package memory provides an in-memory implementation of the persistence
// store used for tests and ephemeral environments. It is also the
// transactional engine embedded by the durable backends.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"taskdesk/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Transaction     = (*transaction)(nil)
)

// memoryState holds each collection as an ordered sequence. Insertion order
// is part of the contract: creates prepend, so the unsorted listing reads
// newest-first, and deletes and updates preserve the remaining order.
type memoryState struct {
	tasks    []domain.Task
	contacts []domain.Contact
}

func (s memoryState) clone() memoryState {
	return memoryState{
		tasks:    slices.Clone(s.tasks),
		contacts: slices.Clone(s.contacts),
	}
}

// Snapshot captures a point-in-time clone of the store state for external
// persistence. The field layout matches the on-disk collection files.
type Snapshot struct {
	Tasks    []domain.Task    `json:"tasks"`
	Contacts []domain.Contact `json:"contacts"`
}

// nextID assigns max(existing numeric ids)+1 as a string, falling back to
// "1" for an empty collection. IDs with non-numeric content are ignored for
// the arithmetic; uniqueness is still enforced against them.
func nextID(ids []string) string {
	max := 0
	for _, id := range ids {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// Store provides an in-memory transactional store for task and contact
// collections.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewDefaultRulesEngine()
	}
	return &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the time provider; tests use this for deterministic
// CreatedAt values.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tasks:    slices.Clone(s.state.tasks),
		Contacts: slices.Clone(s.state.contacts),
	}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryState{
		tasks:    slices.Clone(snapshot.Tasks),
		contacts: slices.Clone(snapshot.Contacts),
	}
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy is committed only when fn succeeds and no registered rule
// reports a blocking violation, so a failed mutation is never partially
// applied.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := transactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View runs fn against a read-only snapshot of the current state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	state := s.state.clone()
	s.mu.RUnlock()
	return fn(transactionView{state: &state})
}

// ListTasks returns the task collection in insertion order.
func (s *Store) ListTasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.tasks)
}

// ListContacts returns the contact collection in insertion order.
func (s *Store) ListContacts() []domain.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.contacts)
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.state.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// GetContact retrieves a contact by ID.
func (s *Store) GetContact(id string) (domain.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contact{}, false
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []domain.Change
	now     time.Time
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes a read-only view of the transactional state to rules.
func (tx *transaction) Snapshot() domain.TransactionView {
	return transactionView{state: &tx.state}
}

// CreateTask assigns identity fields and prepends the task to the
// collection so the next unsorted read lists it first.
func (tx *transaction) CreateTask(t domain.Task) (domain.Task, error) {
	if t.ID == "" {
		t.ID = nextID(taskIDs(tx.state.tasks))
	}
	for _, existing := range tx.state.tasks {
		if existing.ID == t.ID {
			return domain.Task{}, domain.ValidationError{Fields: map[string]string{"id": "id already exists"}}
		}
	}
	t.CreatedAt = tx.now
	tx.state.tasks = append([]domain.Task{t}, tx.state.tasks...)
	tx.recordChange(domain.Change{Entity: domain.EntityTask, Action: domain.ActionCreate, After: t})
	return t, nil
}

// UpdateTask mutates a task in place using the provided mutator. Identity
// fields survive the mutator: ID and CreatedAt are restored afterwards.
func (tx *transaction) UpdateTask(id string, mutator func(*domain.Task) error) (domain.Task, error) {
	idx := slices.IndexFunc(tx.state.tasks, func(t domain.Task) bool { return t.ID == id })
	if idx < 0 {
		return domain.Task{}, domain.NotFoundError{Entity: domain.EntityTask, ID: id}
	}
	before := tx.state.tasks[idx]
	current := before
	if err := mutator(&current); err != nil {
		return domain.Task{}, err
	}
	current.ID = before.ID
	current.CreatedAt = before.CreatedAt
	tx.state.tasks[idx] = current
	tx.recordChange(domain.Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTask removes a task, preserving the order of the remaining records.
func (tx *transaction) DeleteTask(id string) error {
	idx := slices.IndexFunc(tx.state.tasks, func(t domain.Task) bool { return t.ID == id })
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityTask, ID: id}
	}
	before := tx.state.tasks[idx]
	tx.state.tasks = slices.Delete(tx.state.tasks, idx, idx+1)
	tx.recordChange(domain.Change{Entity: domain.EntityTask, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateContact assigns identity fields and prepends the contact.
func (tx *transaction) CreateContact(c domain.Contact) (domain.Contact, error) {
	if c.ID == "" {
		c.ID = nextID(contactIDs(tx.state.contacts))
	}
	for _, existing := range tx.state.contacts {
		if existing.ID == c.ID {
			return domain.Contact{}, domain.ValidationError{Fields: map[string]string{"id": "id already exists"}}
		}
	}
	c.CreatedAt = tx.now
	tx.state.contacts = append([]domain.Contact{c}, tx.state.contacts...)
	tx.recordChange(domain.Change{Entity: domain.EntityContact, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateContact mutates a contact using the provided mutator.
func (tx *transaction) UpdateContact(id string, mutator func(*domain.Contact) error) (domain.Contact, error) {
	idx := slices.IndexFunc(tx.state.contacts, func(c domain.Contact) bool { return c.ID == id })
	if idx < 0 {
		return domain.Contact{}, domain.NotFoundError{Entity: domain.EntityContact, ID: id}
	}
	before := tx.state.contacts[idx]
	current := before
	if err := mutator(&current); err != nil {
		return domain.Contact{}, err
	}
	current.ID = before.ID
	current.CreatedAt = before.CreatedAt
	tx.state.contacts[idx] = current
	tx.recordChange(domain.Change{Entity: domain.EntityContact, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteContact removes a contact from the collection.
func (tx *transaction) DeleteContact(id string) error {
	idx := slices.IndexFunc(tx.state.contacts, func(c domain.Contact) bool { return c.ID == id })
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityContact, ID: id}
	}
	before := tx.state.contacts[idx]
	tx.state.contacts = slices.Delete(tx.state.contacts, idx, idx+1)
	tx.recordChange(domain.Change{Entity: domain.EntityContact, Action: domain.ActionDelete, Before: before})
	return nil
}

// transactionView exposes a read-only snapshot of state.
type transactionView struct {
	state *memoryState
}

// ListTasks returns all tasks within the snapshot in insertion order.
func (v transactionView) ListTasks() []domain.Task {
	return slices.Clone(v.state.tasks)
}

// ListContacts returns all contacts within the snapshot in insertion order.
func (v transactionView) ListContacts() []domain.Contact {
	return slices.Clone(v.state.contacts)
}

// FindTask retrieves a task by ID from the snapshot.
func (v transactionView) FindTask(id string) (domain.Task, bool) {
	for _, t := range v.state.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// FindContact retrieves a contact by ID from the snapshot.
func (v transactionView) FindContact(id string) (domain.Contact, bool) {
	for _, c := range v.state.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contact{}, false
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func contactIDs(contacts []domain.Contact) []string {
	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	return ids
}
