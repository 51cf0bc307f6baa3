package core

import (
	"context"
	"time"

	"taskdesk/pkg/domain"
)

// AuditStatus distinguishes successful from failed operation outcomes.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation for audit trails.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries. Implementations must be safe for
// concurrent use.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder aggregates operation outcomes and latencies.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is finished exactly once with the operation's terminal error.
type TraceSpan interface {
	End(err error)
}

// Clock supplies timestamps; overridable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type operationMetadata struct {
	entity EntityType
	action Action
}

// operationCatalog maps service operation names to their audited entity and
// action. Operations absent from the catalog are not audited.
var operationCatalog = map[string]operationMetadata{
	"list_tasks":     {entity: domain.EntityTask, action: ""},
	"create_task":    {entity: domain.EntityTask, action: domain.ActionCreate},
	"update_task":    {entity: domain.EntityTask, action: domain.ActionUpdate},
	"toggle_task":    {entity: domain.EntityTask, action: domain.ActionUpdate},
	"delete_task":    {entity: domain.EntityTask, action: domain.ActionDelete},
	"list_contacts":  {entity: domain.EntityContact, action: ""},
	"create_contact": {entity: domain.EntityContact, action: domain.ActionCreate},
	"update_contact": {entity: domain.EntityContact, action: domain.ActionUpdate},
	"delete_contact": {entity: domain.EntityContact, action: domain.ActionDelete},
}
