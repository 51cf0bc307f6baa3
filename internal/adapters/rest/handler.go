// Package rest exposes the task and contact service over a JSON HTTP API.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"taskdesk/internal/archive"
	"taskdesk/internal/core"
	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

// Handler provides HTTP access to listing, mutation, and archive operations.
type Handler struct {
	Service  *core.Service
	Archiver *archive.Archiver
	Logger   core.Logger
}

// NewHandler constructs a REST handler over the service. The archiver is
// optional; archive routes 404 without one.
func NewHandler(service *core.Service, archiver *archive.Archiver) *Handler {
	return &Handler{Service: service, Archiver: archiver}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "service not configured", nil)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/tasks":
		h.handleTaskCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/tasks/"):
		h.handleTaskItem(w, r, strings.TrimPrefix(path, "/api/v1/tasks/"))
	case path == "/api/v1/contacts":
		h.handleContactCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/contacts/"):
		h.handleContactItem(w, r, strings.TrimPrefix(path, "/api/v1/contacts/"))
	case strings.HasPrefix(path, "/api/v1/archive/"):
		if h.Archiver == nil {
			http.NotFound(w, r)
			return
		}
		h.handleArchive(w, r, strings.TrimPrefix(path, "/api/v1/archive/"))
	default:
		http.NotFound(w, r)
	}
}

// listOptions parses q, sort, dir, page, and limit query parameters.
// Unparseable numbers fall back to defaults rather than erroring.
func listOptions(r *http.Request) query.Options {
	values := r.URL.Query()
	opts := query.Options{
		Search:  values.Get("q"),
		SortKey: values.Get("sort"),
		Desc:    strings.EqualFold(values.Get("dir"), "desc"),
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		opts.PageSize = limit
	}
	return opts
}

type taskPayload struct {
	ContactID   *string `json:"contactId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	DueDate     *string `json:"dueDate"`
}

func (p taskPayload) apply(task *domain.Task) {
	if p.ContactID != nil {
		task.ContactID = *p.ContactID
	}
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Completed != nil {
		task.Completed = *p.Completed
	}
	if p.DueDate != nil {
		task.DueDate = *p.DueDate
	}
}

type contactPayload struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}

func (p contactPayload) apply(contact *domain.Contact) {
	if p.Name != nil {
		contact.Name = *p.Name
	}
	if p.Email != nil {
		contact.Email = *p.Email
	}
	if p.Phone != nil {
		contact.Phone = *p.Phone
	}
	if p.Avatar != nil {
		contact.Avatar = *p.Avatar
	}
}

func (h *Handler) handleTaskCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := h.Service.ListTasks(r.Context(), listOptions(r))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var payload taskPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
		var task domain.Task
		payload.apply(&task)
		created, err := h.Service.CreateTask(r.Context(), task)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "record": created})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func (h *Handler) handleTaskItem(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 2 && segments[1] == "toggle" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}
		toggled, err := h.Service.ToggleTask(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": toggled})
		return
	}
	if len(segments) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := h.Service.GetTask(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": task})
	case http.MethodPut:
		var payload taskPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
		updated, err := h.Service.UpdateTask(r.Context(), id, func(task *domain.Task) error {
			payload.apply(task)
			return nil
		})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": updated})
	case http.MethodDelete:
		if err := h.Service.DeleteTask(r.Context(), id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deletedId": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func (h *Handler) handleContactCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := h.Service.ListContacts(r.Context(), listOptions(r))
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var payload contactPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
		var contact domain.Contact
		payload.apply(&contact)
		created, err := h.Service.CreateContact(r.Context(), contact)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "record": created})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func (h *Handler) handleContactItem(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		contact, err := h.Service.GetContact(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": contact})
	case http.MethodPut:
		var payload contactPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
		updated, err := h.Service.UpdateContact(r.Context(), id, func(contact *domain.Contact) error {
			payload.apply(contact)
			return nil
		})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": updated})
	case http.MethodDelete:
		if err := h.Service.DeleteContact(r.Context(), id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deletedId": id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request, collection string) {
	if collection == "" || strings.Contains(collection, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost:
		info, err := h.Archiver.Snapshot(r.Context(), collection)
		if err != nil {
			h.writeArchiveError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "snapshot": info})
	case http.MethodGet:
		infos, err := h.Archiver.List(r.Context(), collection)
		if err != nil {
			h.writeArchiveError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "snapshots": infos})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

func (h *Handler) writeArchiveError(w http.ResponseWriter, err error) {
	if domain.KindOf(err) == "" && strings.Contains(err.Error(), "unknown collection") {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	h.writeServiceError(w, err)
}

// writeServiceError maps the error taxonomy onto HTTP statuses: validation
// failures 422, missing records 404, injected faults 503, everything else 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr domain.ValidationError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		var fields map[string]string
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error(), fields)
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case domain.KindSimulated:
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.Error("request failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	payload := map[string]any{"ok": false, "message": message, "kind": statusKind(status)}
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	writeJSON(w, status, payload)
}

func statusKind(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return string(domain.KindValidation)
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusServiceUnavailable:
		return string(domain.KindSimulated)
	default:
		return "error"
	}
}
