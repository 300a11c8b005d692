// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for boundary mapping. The HTTP layer owns
// the kind-to-status table; core packages only ever produce kinds.
type ErrorKind int

const (
	// KindInternal is the default for unexpected failures.
	KindInternal ErrorKind = iota
	// KindValidation covers missing or malformed input.
	KindValidation
	// KindAuth covers every credential and token failure. Sub-causes are
	// logged server-side but never distinguished to the caller.
	KindAuth
	// KindNotFound covers absent referenced entities.
	KindNotFound
	// KindConflict covers uniqueness violations.
	KindConflict
	// KindUpstream covers quote-provider and analysis-service failures.
	KindUpstream
)

// AppError is a classified error. The Msg is safe to surface; wrapped
// detail stays server-side.
type AppError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches two AppErrors by kind, so errors.Is(err, ErrConflict) style
// checks work with sentinel kinds below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is checks against a kind.
var (
	ErrValidation = &AppError{Kind: KindValidation, Msg: "invalid input"}
	ErrAuth       = &AppError{Kind: KindAuth, Msg: "unauthorized"}
	ErrNotFound   = &AppError{Kind: KindNotFound, Msg: "not found"}
	ErrConflict   = &AppError{Kind: KindConflict, Msg: "conflict"}
	ErrUpstream   = &AppError{Kind: KindUpstream, Msg: "upstream failure"}
	ErrInternal   = &AppError{Kind: KindInternal, Msg: "internal error"}
)

// NewError builds a classified error wrapping cause (which may be nil).
func NewError(kind ErrorKind, msg string, cause error) *AppError {
	return &AppError{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the classification from err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
