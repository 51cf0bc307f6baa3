package domain

import (
	"context"
	"fmt"
)

// Severity grades a rule violation.
type Severity string

// Violation severities; only blocking violations abort a transaction.
const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityLog   Severity = "log"
)

// Violation reports a failed rule evaluation. Field names the offending input
// field when the rule validates record fields.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
	Field    string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// FieldErrors flattens blocking violations into a field -> message map.
func (r Result) FieldErrors() map[string]string {
	var fields map[string]string
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock || v.Field == "" {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		if _, dup := fields[v.Field]; !dup {
			fields[v.Field] = v.Message
		}
	}
	return fields
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds a rules engine with the built-in field rules.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewTaskFieldRule())
	engine.Register(NewContactFieldRule())
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// TaskFieldRule enforces the task field constraints: title required and at
// most MaxTitleLen characters, contactId required, description at most
// MaxDescriptionLen characters.
type TaskFieldRule struct{}

// NewTaskFieldRule constructs the task field constraint rule.
func NewTaskFieldRule() TaskFieldRule { return TaskFieldRule{} }

// Name identifies the rule in violations.
func (TaskFieldRule) Name() string { return "task_fields" }

// Evaluate checks created and updated tasks against the field constraints.
func (r TaskFieldRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityTask || change.Action == ActionDelete {
			continue
		}
		task, ok := change.After.(Task)
		if !ok {
			continue
		}
		result.Merge(r.check(task))
	}
	return result, nil
}

func (r TaskFieldRule) check(task Task) Result {
	var result Result
	add := func(field, message string) {
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityBlock,
			Message:  message,
			Entity:   EntityTask,
			EntityID: task.ID,
			Field:    field,
		})
	}
	if task.Title == "" {
		add("title", "Title is required")
	} else if len(task.Title) > MaxTitleLen {
		add("title", fmt.Sprintf("Title must be at most %d characters", MaxTitleLen))
	}
	if task.ContactID == "" {
		add("contactId", "Contact is required")
	}
	if len(task.Description) > MaxDescriptionLen {
		add("description", fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLen))
	}
	return result
}

// ContactFieldRule requires a non-empty contact name.
type ContactFieldRule struct{}

// NewContactFieldRule constructs the contact field constraint rule.
func NewContactFieldRule() ContactFieldRule { return ContactFieldRule{} }

// Name identifies the rule in violations.
func (ContactFieldRule) Name() string { return "contact_fields" }

// Evaluate checks created and updated contacts.
func (r ContactFieldRule) Evaluate(_ context.Context, _ TransactionView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityContact || change.Action == ActionDelete {
			continue
		}
		contact, ok := change.After.(Contact)
		if !ok {
			continue
		}
		if contact.Name == "" {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  "Name is required",
				Entity:   EntityContact,
				EntityID: contact.ID,
				Field:    "name",
			})
		}
	}
	return result, nil
}
