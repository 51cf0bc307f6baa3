package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskdesk/internal/archive"
	"taskdesk/internal/blob"
	"taskdesk/internal/core"
	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

func newTestHandler(t *testing.T, opts ...core.ServiceOption) (*Handler, *core.Service) {
	t.Helper()
	store := memory.NewStore(nil)
	svc := core.NewService(store, opts...)
	arc := archive.New(store, blob.NewMemory())
	return NewHandler(svc, arc), svc
}

func seedHandler(t *testing.T, svc *core.Service, taskTitles ...string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.CreateContact(ctx, domain.Contact{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	for _, title := range taskTitles {
		if _, err := svc.CreateTask(ctx, domain.Task{Title: title, ContactID: "1"}); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
}

func doRequest(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListTasksWithQueryParameters(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc, "alpha", "beta", "gamma", "alphabet")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/tasks?q=alpha&sort=title&dir=asc&page=1&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var page query.Page[domain.Task]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Title != "alpha" {
		t.Fatalf("unexpected first item: %+v", page.Items[0])
	}
}

func TestListClampsOutOfRangePage(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc, "one", "two", "three")

	rec := doRequest(t, h, http.MethodGet, "/api/v1/tasks?page=99&limit=2", "")
	var page query.Page[domain.Task]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Page != 2 || len(page.Items) != 1 {
		t.Fatalf("expected clamp to last page, got %+v", page)
	}
}

func TestCreateTaskRoundTrip(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/tasks", `{"title":"ship it","contactId":"1","dueDate":"2026-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	record := body["record"].(map[string]any)
	if record["id"] != "1" || record["title"] != "ship it" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record["dueDate"] != "2026-03-01T00:00:00Z" {
		t.Fatalf("dueDate not normalized: %v", record["dueDate"])
	}
}

func TestCreateTaskValidationReturns422WithFields(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/tasks", `{"description":"missing everything"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	if body["ok"] != false || body["kind"] != "validation" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	fields := body["fields"].(map[string]any)
	if fields["title"] != "Title is required" || fields["contactId"] != "Contact is required" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestToggleAndDeleteTask(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc, "flip")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/tasks/1/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status %d: %s", rec.Code, rec.Body.String())
	}
	record := decodeMap(t, rec)["record"].(map[string]any)
	if record["completed"] != true {
		t.Fatalf("expected completed: %+v", record)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/tasks/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", rec.Code, rec.Body.String())
	}
	if decodeMap(t, rec)["deletedId"] != "1" {
		t.Fatalf("unexpected delete envelope: %s", rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/tasks/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status %d", rec.Code)
	}
	if decodeMap(t, rec)["kind"] != "not_found" {
		t.Fatalf("unexpected kind: %s", rec.Body.String())
	}
}

func TestUpdateTaskPartialBody(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc, "original")

	rec := doRequest(t, h, http.MethodPut, "/api/v1/tasks/1", `{"title":"renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	record := decodeMap(t, rec)["record"].(map[string]any)
	if record["title"] != "renamed" || record["contactId"] != "1" {
		t.Fatalf("partial update clobbered fields: %+v", record)
	}
}

func TestSimulatedFailureMapsTo503(t *testing.T) {
	h, svc := newTestHandler(t, core.WithFailurePolicy(core.AlwaysFail{}))
	_ = svc
	rec := doRequest(t, h, http.MethodPost, "/api/v1/tasks", `{"title":"t","contactId":"1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if decodeMap(t, rec)["kind"] != "simulated" {
		t.Fatalf("unexpected kind: %s", rec.Body.String())
	}
}

func TestContactRoutes(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/contacts", `{"name":"Grace","email":"grace@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/contacts?q=grace", "")
	var page query.Page[domain.Contact]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Items[0].Name != "Grace" {
		t.Fatalf("unexpected page: %+v", page)
	}

	rec = doRequest(t, h, http.MethodPut, "/api/v1/contacts/1", `{"phone":"123-456-780"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", rec.Code, rec.Body.String())
	}
	record := decodeMap(t, rec)["record"].(map[string]any)
	if record["phone"] != "123-456-780" || record["name"] != "Grace" {
		t.Fatalf("unexpected record: %+v", record)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/contacts/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/api/v1/contacts/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestArchiveRoutes(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc, "keep me")

	rec := doRequest(t, h, http.MethodPost, "/api/v1/archive/tasks", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("snapshot status %d: %s", rec.Code, rec.Body.String())
	}
	snapshot := decodeMap(t, rec)["snapshot"].(map[string]any)
	if !strings.HasPrefix(snapshot["key"].(string), "tasks/") {
		t.Fatalf("unexpected key: %v", snapshot["key"])
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/archive/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d: %s", rec.Code, rec.Body.String())
	}
	snapshots := decodeMap(t, rec)["snapshots"].([]any)
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}

	rec = doRequest(t, h, http.MethodPost, "/api/v1/archive/projects", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown collection status %d", rec.Code)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	h, svc := newTestHandler(t)
	seedHandler(t, svc)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/tasks", `{"title": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodPost, "/api/v1/tasks", `{"unknown":"field"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status %d", rec.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h, _ := newTestHandler(t)
	if rec := doRequest(t, h, http.MethodGet, "/api/v1/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodPatch, "/api/v1/tasks", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}
