// Package ui maintains a client-side view of the task list with optimistic
// mutations: toggles and deletes apply locally before the backing service
// confirms them, and roll back when it does not.
package ui

import (
	"context"
	"slices"
	"sync"

	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

// TaskService is the backend surface the controller drives. *core.Service
// satisfies it.
type TaskService interface {
	ListTasks(ctx context.Context, opts query.Options) (query.Page[domain.Task], error)
	CreateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, mutator func(*domain.Task) error) (domain.Task, error)
	ToggleTask(ctx context.Context, id string) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Notifier surfaces operation outcomes to the user, toast style.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}

// Controller holds the visible task page and reconciles it against the
// service. All methods are safe for concurrent use; reads between a mutation's
// local apply and its confirmation observe the optimistic state.
type Controller struct {
	service  TaskService
	notifier Notifier

	mu    sync.RWMutex
	tasks []domain.Task
	page  query.Page[domain.Task]
}

// NewController builds a controller over the given service. A nil notifier
// discards notifications.
func NewController(service TaskService, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Controller{service: service, notifier: notifier}
}

// Tasks returns a copy of the currently visible tasks.
func (c *Controller) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tasks)
}

// Page returns the pagination metadata from the last refresh.
func (c *Controller) Page() query.Page[domain.Task] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Refresh replaces the visible state with a fresh page from the service.
func (c *Controller) Refresh(ctx context.Context, opts query.Options) error {
	page, err := c.service.ListTasks(ctx, opts)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.page = page
	c.tasks = slices.Clone(page.Items)
	c.mu.Unlock()
	return nil
}

// Toggle flips the task's completion flag locally, then confirms with the
// service. On failure the flag is flipped back and the user is notified.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return domain.NotFoundError{Entity: domain.EntityTask, ID: id}
	}
	c.tasks[idx].Completed = !c.tasks[idx].Completed
	c.mu.Unlock()

	confirmed, err := c.service.ToggleTask(ctx, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	idx = c.indexOf(id)
	if err != nil {
		if idx >= 0 {
			c.tasks[idx].Completed = !c.tasks[idx].Completed
		}
		c.notifier.Error("Failed to toggle task")
		return err
	}
	if idx >= 0 {
		c.tasks[idx] = confirmed
	}
	return nil
}

// Delete removes the task locally, then confirms with the service. On failure
// the previous list is restored and the user is notified.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return domain.NotFoundError{Entity: domain.EntityTask, ID: id}
	}
	previous := slices.Clone(c.tasks)
	c.tasks = slices.Delete(c.tasks, idx, idx+1)
	c.mu.Unlock()

	err := c.service.DeleteTask(ctx, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.tasks = previous
		c.notifier.Error("Delete failed")
		return err
	}
	c.notifier.Success("Task deleted")
	return nil
}

// Create submits a new task and prepends the stored copy once the service
// confirms it. No optimistic placeholder is shown.
func (c *Controller) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	created, err := c.service.CreateTask(ctx, task)
	if err != nil {
		c.notifier.Error("Save failed")
		return domain.Task{}, err
	}
	c.mu.Lock()
	c.tasks = append([]domain.Task{created}, c.tasks...)
	c.mu.Unlock()
	c.notifier.Success("Task created")
	return created, nil
}

// Update submits a field mutation and replaces the visible copy once the
// service confirms it. No optimistic edit is shown.
func (c *Controller) Update(ctx context.Context, id string, mutator func(*domain.Task) error) (domain.Task, error) {
	updated, err := c.service.UpdateTask(ctx, id, mutator)
	if err != nil {
		c.notifier.Error("Save failed")
		return domain.Task{}, err
	}
	c.mu.Lock()
	if idx := c.indexOf(id); idx >= 0 {
		c.tasks[idx] = updated
	}
	c.mu.Unlock()
	c.notifier.Success("Task updated")
	return updated, nil
}

// indexOf requires c.mu to be held.
func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.tasks, func(t domain.Task) bool { return t.ID == id })
}
