package ui

import (
	"context"
	"testing"

	"taskdesk/internal/core"
	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

type captureNotifier struct {
	successes []string
	errors    []string
}

func (n *captureNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *captureNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

func (n *captureNotifier) lastError(t *testing.T) string {
	t.Helper()
	if len(n.errors) == 0 {
		t.Fatalf("expected an error notification")
	}
	return n.errors[len(n.errors)-1]
}

func newBackend(t *testing.T, opts ...core.ServiceOption) *core.Service {
	t.Helper()
	store := memory.NewStore(nil)
	svc := core.NewService(store, opts...)
	ctx := context.Background()
	if _, err := svc.CreateContact(ctx, domain.Contact{Name: "Ada"}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	for _, title := range []string{"write", "review", "ship"} {
		if _, err := svc.CreateTask(ctx, domain.Task{Title: title, ContactID: "1"}); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	return svc
}

func refreshed(t *testing.T, svc *core.Service, notifier Notifier) *Controller {
	t.Helper()
	ctrl := NewController(svc, notifier)
	if err := ctrl.Refresh(context.Background(), query.Options{PageSize: 100}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return ctrl
}

func taskByID(tasks []domain.Task, id string) (domain.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

func TestRefreshLoadsPage(t *testing.T) {
	svc := newBackend(t)
	ctrl := refreshed(t, svc, nil)
	if got := len(ctrl.Tasks()); got != 3 {
		t.Fatalf("expected 3 tasks, got %d", got)
	}
	if ctrl.Page().Total != 3 || ctrl.Page().TotalPages != 1 {
		t.Fatalf("unexpected page meta: %+v", ctrl.Page())
	}
	// Newest first.
	if ctrl.Tasks()[0].Title != "ship" {
		t.Fatalf("expected newest first, got %q", ctrl.Tasks()[0].Title)
	}
}

func TestToggleConfirmsAgainstService(t *testing.T) {
	svc := newBackend(t)
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	id := ctrl.Tasks()[0].ID

	if err := ctrl.Toggle(context.Background(), id); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	local, _ := taskByID(ctrl.Tasks(), id)
	if !local.Completed {
		t.Fatalf("expected completed locally")
	}
	stored, err := svc.GetTask(context.Background(), id)
	if err != nil || !stored.Completed {
		t.Fatalf("service copy not toggled: %+v %v", stored, err)
	}
	if len(notifier.errors) != 0 {
		t.Fatalf("unexpected error notifications: %v", notifier.errors)
	}
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	svc := newBackend(t, core.WithFailurePolicy(core.AlwaysFail{}))
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	id := ctrl.Tasks()[1].ID

	if err := ctrl.Toggle(context.Background(), id); err == nil {
		t.Fatalf("expected injected failure")
	}
	local, _ := taskByID(ctrl.Tasks(), id)
	if local.Completed {
		t.Fatalf("optimistic toggle not rolled back")
	}
	if notifier.lastError(t) != "Failed to toggle task" {
		t.Fatalf("unexpected message: %q", notifier.lastError(t))
	}
	stored, err := svc.GetTask(context.Background(), id)
	if err != nil || stored.Completed {
		t.Fatalf("service state changed despite failure: %+v %v", stored, err)
	}
}

func TestDeleteRemovesLocallyAndRemotely(t *testing.T) {
	svc := newBackend(t)
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	id := ctrl.Tasks()[2].ID

	if err := ctrl.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := taskByID(ctrl.Tasks(), id); ok {
		t.Fatalf("task still visible after delete")
	}
	if _, err := svc.GetTask(context.Background(), id); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("service still has task: %v", err)
	}
	if len(notifier.successes) == 0 || notifier.successes[len(notifier.successes)-1] != "Task deleted" {
		t.Fatalf("missing delete notification: %v", notifier.successes)
	}
}

func TestDeleteRestoresListOnFailure(t *testing.T) {
	svc := newBackend(t, core.WithFailurePolicy(core.AlwaysFail{}))
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	before := ctrl.Tasks()
	id := before[0].ID

	if err := ctrl.Delete(context.Background(), id); err == nil {
		t.Fatalf("expected injected failure")
	}
	after := ctrl.Tasks()
	if len(after) != len(before) {
		t.Fatalf("list not restored: %d vs %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("order not restored at %d: %q vs %q", i, after[i].ID, before[i].ID)
		}
	}
	if notifier.lastError(t) != "Delete failed" {
		t.Fatalf("unexpected message: %q", notifier.lastError(t))
	}
}

func TestCreateIsNotOptimistic(t *testing.T) {
	svc := newBackend(t, core.WithFailurePolicy(core.AlwaysFail{}))
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	before := len(ctrl.Tasks())

	if _, err := ctrl.Create(context.Background(), domain.Task{Title: "doomed", ContactID: "1"}); err == nil {
		t.Fatalf("expected injected failure")
	}
	if len(ctrl.Tasks()) != before {
		t.Fatalf("failed create must not add a local task")
	}
	if notifier.lastError(t) != "Save failed" {
		t.Fatalf("unexpected message: %q", notifier.lastError(t))
	}
}

func TestCreatePrependsConfirmedTask(t *testing.T) {
	svc := newBackend(t)
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)

	created, err := ctrl.Create(context.Background(), domain.Task{Title: "fresh", ContactID: "1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if ctrl.Tasks()[0].ID != created.ID {
		t.Fatalf("created task not first: %+v", ctrl.Tasks()[0])
	}
	if notifier.successes[len(notifier.successes)-1] != "Task created" {
		t.Fatalf("missing create notification: %v", notifier.successes)
	}
}

func TestUpdateReplacesVisibleCopy(t *testing.T) {
	svc := newBackend(t)
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	id := ctrl.Tasks()[1].ID

	updated, err := ctrl.Update(context.Background(), id, func(task *domain.Task) error {
		task.Title = "rewritten"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "rewritten" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	local, _ := taskByID(ctrl.Tasks(), id)
	if local.Title != "rewritten" {
		t.Fatalf("visible copy not replaced: %+v", local)
	}
	if notifier.successes[len(notifier.successes)-1] != "Task updated" {
		t.Fatalf("missing update notification: %v", notifier.successes)
	}
}

func TestUpdateValidationFailureNotifies(t *testing.T) {
	svc := newBackend(t)
	notifier := &captureNotifier{}
	ctrl := refreshed(t, svc, notifier)
	id := ctrl.Tasks()[0].ID
	before, _ := taskByID(ctrl.Tasks(), id)

	_, err := ctrl.Update(context.Background(), id, func(task *domain.Task) error {
		task.Title = ""
		return nil
	})
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	after, _ := taskByID(ctrl.Tasks(), id)
	if after.Title != before.Title {
		t.Fatalf("visible copy mutated on failed update")
	}
	if notifier.lastError(t) != "Save failed" {
		t.Fatalf("unexpected message: %q", notifier.lastError(t))
	}
}

func TestToggleUnknownTask(t *testing.T) {
	svc := newBackend(t)
	ctrl := refreshed(t, svc, nil)
	if err := ctrl.Toggle(context.Background(), "404"); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
