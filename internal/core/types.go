package core

import "taskdesk/pkg/domain"

type (
	EntityType         = domain.EntityType
	Base               = domain.Base
	Task               = domain.Task
	Contact            = domain.Contact
	Change             = domain.Change
	Action             = domain.Action
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	ValidationError    = domain.ValidationError
	NotFoundError      = domain.NotFoundError
)

const (
	EntityTask    = domain.EntityTask
	EntityContact = domain.EntityContact
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
