package model

import (
	"context"
	"errors"
)

// Query is a free-form text request.
type Query struct {
	Text string `json:"text"`
}

// Answer is a resolved query.
type Answer struct {
	Intent string `json:"intent"`
	Body   string `json:"body"`
}

// Model represents a natural-language model.
//
// Query returns Rejected error if model cannot resolve text to a supported
// intent.
type Model interface {
	ID() string
	Query(ctx context.Context, q Query) (Answer, error)
}

// RejectedError is returned by models for input they refuse to resolve.
type RejectedError struct {
	Reason string
}

func (r *RejectedError) Error() string {
	return "rejected: " + r.Reason
}

// Rejected creates new *RejectedError.
func Rejected(reason string) error {
	return &RejectedError{Reason: reason}
}

// IsRejected reports whether err is a rejection and returns its reason.
func IsRejected(err error) (string, bool) {
	var r *RejectedError
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
