package model

import (
	"errors"
	"fmt"
)

// AdapterError reports that a single source failed during a stage.
type AdapterError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s (%s): %v", e.Source, e.Stage, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// StageEmptyError reports that a stage produced nothing, either because every
// adapter failed or because all of them legitimately returned no records.
type StageEmptyError struct {
	Stage     Stage
	Attempted int
	Failed    int
}

func (e *StageEmptyError) Error() string {
	if e.Attempted > 0 && e.Failed == e.Attempted {
		return fmt.Sprintf("stage %s: no results (all %d adapters failed)", e.Stage, e.Failed)
	}
	return fmt.Sprintf("stage %s: no results", e.Stage)
}

// ConfigurationError reports invalid settings. It is fatal and raised before
// any fetch is attempted.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Field, e.Reason)
}

// EntityProcessingError reports that one entity failed within a stage. The
// entity is carried forward with whatever data it already has.
type EntityProcessingError struct {
	EntityID string
	Stage    Stage
	Err      error
}

func (e *EntityProcessingError) Error() string {
	return fmt.Sprintf("entity %s (%s): %v", e.EntityID, e.Stage, e.Err)
}

func (e *EntityProcessingError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsStageEmpty reports whether err wraps a StageEmptyError.
func IsStageEmpty(err error) bool {
	var se *StageEmptyError
	return errors.As(err, &se)
}

// IsAdapterError reports whether err wraps an AdapterError.
func IsAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
