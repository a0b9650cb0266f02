// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a referenced hospital, donor, campaign or
// blood request does not exist.
type NotFoundError struct {
	Resource string
	ID       string
	Detail   string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Helper constructor
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewNotFoundDetail builds a NotFoundError with a custom message.
func NewNotFoundDetail(resource, id, detail string) error {
	return &NotFoundError{Resource: resource, ID: id, Detail: detail}
}

// InvalidStateTransitionError reports a lifecycle transition the state
// machine does not allow. The record is left unchanged.
type InvalidStateTransitionError struct {
	RecordID string
	From     string
	Action   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a request with status %s", e.Action, e.From)
}

func NewInvalidStateTransition(recordID, from, action string) error {
	return &InvalidStateTransitionError{RecordID: recordID, From: from, Action: action}
}

// InvalidArgumentError reports bad caller input.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewInvalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInvalidStateTransition(err error) bool {
	var target *InvalidStateTransitionError
	return errors.As(err, &target)
}

func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}
