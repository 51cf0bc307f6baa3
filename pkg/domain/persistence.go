package domain

import "context"

// Transaction exposes the record operations that a persistence implementation
// must support within an atomic scope. Collections are ordered sequences:
// creates prepend, and list order survives updates and deletes.
type Transaction interface {
	Snapshot() TransactionView
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	CreateContact(Contact) (Contact, error)
	UpdateContact(id string, mutator func(*Contact) error) (Contact, error)
	DeleteContact(id string) error
}

// TransactionView provides read-only access to snapshot data for rules and
// listing queries.
type TransactionView interface {
	ListTasks() []Task
	ListContacts() []Contact
	FindTask(id string) (Task, bool)
	FindContact(id string) (Contact, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ListTasks() []Task
	ListContacts() []Contact
	GetTask(id string) (Task, bool)
	GetContact(id string) (Contact, bool)
}
