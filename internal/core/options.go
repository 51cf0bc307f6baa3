package core

// ServiceOption customizes optional service collaborators.
type ServiceOption func(*Service)

// WithLogger installs a structured logger. A nil logger keeps the no-op default.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder installs an audit sink for completed operations.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		s.audit = recorder
	}
}

// WithMetricsRecorder installs a metrics sink for operation outcomes.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithTracer installs a tracer wrapping every operation in a span.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithClock overrides the timestamp source used for audit entries.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFailurePolicy overrides the fault-injection policy applied to mutations.
func WithFailurePolicy(policy FailurePolicy) ServiceOption {
	return func(s *Service) {
		if policy != nil {
			s.failures = policy
		}
	}
}
