package core

import (
	"context"
	"math/rand"
	"testing"

	"taskdesk/pkg/domain"
)

func TestAlwaysFailRejectsMutationsAndLeavesStateIntact(t *testing.T) {
	store := newSeededStore(t)
	svc := NewService(store, WithFailurePolicy(AlwaysFail{}))

	before := store.ListTasks()
	_, err := svc.ToggleTask(context.Background(), before[0].ID)
	if domain.KindOf(err) != domain.KindSimulated {
		t.Fatalf("expected simulated failure, got %v", err)
	}
	if err := svc.DeleteTask(context.Background(), before[0].ID); domain.KindOf(err) != domain.KindSimulated {
		t.Fatalf("expected simulated failure, got %v", err)
	}
	if _, err := svc.CreateTask(context.Background(), domain.Task{Title: "x", ContactID: "1"}); domain.KindOf(err) != domain.KindSimulated {
		t.Fatalf("expected simulated failure, got %v", err)
	}

	after := store.ListTasks()
	if len(after) != len(before) || after[0].Completed != before[0].Completed {
		t.Fatalf("injected failure mutated state: %+v", after)
	}
}

func TestAlwaysFailDoesNotBlockReads(t *testing.T) {
	store := newSeededStore(t)
	svc := NewService(store, WithFailurePolicy(AlwaysFail{}))
	page, err := svc.ListTasks(context.Background(), queryAll())
	if err != nil {
		t.Fatalf("list should not be failure-injected: %v", err)
	}
	if page.Total == 0 {
		t.Fatalf("expected seeded tasks")
	}
	if _, err := svc.GetTask(context.Background(), store.ListTasks()[0].ID); err != nil {
		t.Fatalf("get should not be failure-injected: %v", err)
	}
}

func TestRetryAfterInjectedFailureSucceeds(t *testing.T) {
	store := newSeededStore(t)
	failing := NewService(store, WithFailurePolicy(AlwaysFail{}))
	id := store.ListTasks()[0].ID
	if _, err := failing.ToggleTask(context.Background(), id); err == nil {
		t.Fatalf("expected injected failure")
	}
	healthy := NewService(store)
	toggled, err := healthy.ToggleTask(context.Background(), id)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !toggled.Completed {
		t.Fatalf("expected retry to land the toggle")
	}
}

func TestRateFailureBounds(t *testing.T) {
	never := NewRateFailure(0, rand.NewSource(1))
	always := NewRateFailure(1, rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if never.ShouldFail("toggle_task") {
			t.Fatalf("rate 0 must never fail")
		}
		if !always.ShouldFail("toggle_task") {
			t.Fatalf("rate 1 must always fail")
		}
	}

	half := NewRateFailure(0.5, rand.NewSource(7))
	var failures int
	for i := 0; i < 200; i++ {
		if half.ShouldFail("toggle_task") {
			failures++
		}
	}
	if failures == 0 || failures == 200 {
		t.Fatalf("rate 0.5 produced degenerate outcome: %d/200", failures)
	}

	clamped := NewRateFailure(7, rand.NewSource(1))
	if !clamped.ShouldFail("toggle_task") {
		t.Fatalf("rate above 1 clamps to 1")
	}
}
