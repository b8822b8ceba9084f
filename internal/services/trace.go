package services

import (
	"errors"
	"fmt"

	"eventplanner/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("eventplanner/internal/services")

// fail records err on span and returns it unchanged.
func fail(span trace.Span, err error) error {
	if err != nil && !errors.Is(err, domain.ErrPartialFailure) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// storageErr marks a repository error as a storage failure. Not-found and already-marked
// errors keep their identity.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
