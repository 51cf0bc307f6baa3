// Package core implements the transactional task and contact service:
// validated mutations, list queries, fault injection, and operation
// observability hooks.
package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

// Service exposes higher-level transactional CRUD and listing operations over
// a persistent store. Mutations run the store's rule engine; listing runs the
// shared query pipeline against a consistent snapshot.
type Service struct {
	store    domain.PersistentStore
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	clock    Clock
	failures FailurePolicy
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		logger:   noopLogger{},
		clock:    systemClock{},
		failures: NeverFail{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// ListTasks returns one page of tasks after search, sort, and pagination.
func (s *Service) ListTasks(ctx context.Context, opts query.Options) (query.Page[domain.Task], error) {
	var page query.Page[domain.Task]
	err := s.instrument(ctx, "list_tasks", func(ctx context.Context) (string, error) {
		err := s.store.View(ctx, func(view domain.TransactionView) error {
			page = query.Run(view.ListTasks(), query.TaskFields(), opts)
			return nil
		})
		return "", err
	})
	return page, err
}

// ListContacts returns one page of contacts after search, sort, and pagination.
func (s *Service) ListContacts(ctx context.Context, opts query.Options) (query.Page[domain.Contact], error) {
	var page query.Page[domain.Contact]
	err := s.instrument(ctx, "list_contacts", func(ctx context.Context) (string, error) {
		err := s.store.View(ctx, func(view domain.TransactionView) error {
			page = query.Run(view.ListContacts(), query.ContactFields(), opts)
			return nil
		})
		return "", err
	})
	return page, err
}

// GetTask fetches a single task by id.
func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	task, ok := s.store.GetTask(id)
	if !ok {
		return domain.Task{}, domain.NotFoundError{Entity: domain.EntityTask, ID: id}
	}
	return task, nil
}

// GetContact fetches a single contact by id.
func (s *Service) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Contact{}, err
	}
	contact, ok := s.store.GetContact(id)
	if !ok {
		return domain.Contact{}, domain.NotFoundError{Entity: domain.EntityContact, ID: id}
	}
	return contact, nil
}

// CreateTask validates and persists a new task, returning it with its
// assigned id and creation timestamp.
func (s *Service) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	var created domain.Task
	err := s.instrument(ctx, "create_task", func(ctx context.Context) (string, error) {
		task.DueDate = normalizeDueDate(task.DueDate)
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateTask(task)
			return err
		})
		return created.ID, mapRuleError(res, err)
	})
	return created, err
}

// UpdateTask applies the mutator to the identified task. The task's id and
// creation timestamp are preserved regardless of what the mutator does.
func (s *Service) UpdateTask(ctx context.Context, id string, mutator func(*domain.Task) error) (domain.Task, error) {
	var updated domain.Task
	err := s.instrument(ctx, "update_task", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateTask(id, func(t *domain.Task) error {
				if err := mutator(t); err != nil {
					return err
				}
				t.DueDate = normalizeDueDate(t.DueDate)
				return nil
			})
			return err
		})
		return id, mapRuleError(res, err)
	})
	return updated, err
}

// ToggleTask flips the task's completion flag and leaves every other field
// untouched.
func (s *Service) ToggleTask(ctx context.Context, id string) (domain.Task, error) {
	var toggled domain.Task
	err := s.instrument(ctx, "toggle_task", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			toggled, err = tx.UpdateTask(id, func(t *domain.Task) error {
				t.Completed = !t.Completed
				return nil
			})
			return err
		})
		return id, mapRuleError(res, err)
	})
	return toggled, err
}

// DeleteTask removes a task permanently.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_task", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteTask(id)
		})
		return id, mapRuleError(res, err)
	})
}

// CreateContact validates and persists a new contact.
func (s *Service) CreateContact(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	var created domain.Contact
	err := s.instrument(ctx, "create_contact", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateContact(contact)
			return err
		})
		return created.ID, mapRuleError(res, err)
	})
	return created, err
}

// UpdateContact applies the mutator to the identified contact.
func (s *Service) UpdateContact(ctx context.Context, id string, mutator func(*domain.Contact) error) (domain.Contact, error) {
	var updated domain.Contact
	err := s.instrument(ctx, "update_contact", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateContact(id, mutator)
			return err
		})
		return id, mapRuleError(res, err)
	})
	return updated, err
}

// DeleteContact removes a contact permanently. Tasks referencing the contact
// keep their contactId; dangling references are the caller's concern.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_contact", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteContact(id)
		})
		return id, mapRuleError(res, err)
	})
}

// instrument wraps one operation with fault injection, tracing, metrics,
// audit, and logging. fn returns the id of the affected entity when known.
func (s *Service) instrument(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) error {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, op)
	}
	start := time.Now()
	var entityID string
	var err error
	if s.isMutation(op) && s.failures.ShouldFail(op) {
		err = domain.SimulatedFailure{Op: op}
	} else {
		entityID, err = fn(ctx)
	}
	duration := time.Since(start)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, duration)
	}
	if err != nil {
		s.recordAuditError(ctx, op, entityID, err, duration)
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		return err
	}
	s.recordAuditSuccess(ctx, op, entityID, duration)
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", duration)
	return nil
}

func (s *Service) isMutation(op string) bool {
	meta, ok := operationCatalog[op]
	return ok && meta.action != ""
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, nil, duration)
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, err error, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, err, duration)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, opErr error, duration time.Duration) {
	if s.audit == nil {
		return
	}
	meta, ok := operationCatalog[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if opErr != nil {
		entry.Status = AuditStatusError
		entry.Error = opErr.Error()
	}
	s.audit.Record(ctx, entry)
}

// mapRuleError converts blocking rule violations into the field-keyed
// validation error callers present to users. Other errors pass through.
func mapRuleError(res domain.Result, err error) error {
	var rve domain.RuleViolationError
	if errors.As(err, &rve) {
		return domain.ValidationError{Fields: res.FieldErrors()}
	}
	return err
}

// dueDateLayouts are accepted input formats, tried in order.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalizeDueDate canonicalizes recognizable date strings to RFC 3339 UTC.
// Unrecognized values are stored verbatim so callers can round-trip whatever
// they submitted.
func normalizeDueDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return raw
}
