package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Kind is the stable tag callers branch on. Several kinds share one code.
type Kind string

const (
	KindChatNotFound              Kind = "chat_not_found"
	KindParticipantNotFound       Kind = "participant_not_found"
	KindParticipantNotCommercial  Kind = "participant_not_commercial"
	KindChatClosed                Kind = "chat_closed"
	KindMessageTooOld             Kind = "message_too_old"
	KindChatAlreadyClaimed        Kind = "chat_already_claimed"
	KindClaimNotFound             Kind = "claim_not_found"
	KindUnauthorizedClaimRelease  Kind = "unauthorized_claim_release"
	KindClaimAlreadyReleased      Kind = "claim_already_released"
	KindComercialCannotBeAssigned Kind = "comercial_cannot_be_assigned"
	KindInvalidStatusTransition   Kind = "invalid_status_transition"
	KindInvalidPayload            Kind = "invalid_payload"
	KindUnauthorized              Kind = "unauthorized"
	KindHandlerNotRegistered      Kind = "handler_not_registered"
	KindPresenceUnavailable       Kind = "presence_unavailable"
	KindForbidden                 Kind = "forbidden"
	KindDuplicateID               Kind = "duplicate_id"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Kind so that a detailed instance still satisfies
// errors.Is against the package-level sentinel of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Kind != "" && e.Kind == t.Kind
}

// NewError builds a domain error.
func NewError(code ErrorCode, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Detail returns a copy of a sentinel with a more specific message.
func (e *Error) Detail(format string, args ...interface{}) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
		Err:     e.Err,
	}
}

var (
	ErrChatNotFound              = NewError(ErrCodeNotFound, KindChatNotFound, "chat not found")
	ErrParticipantNotFound       = NewError(ErrCodeNotFound, KindParticipantNotFound, "participant not found")
	ErrParticipantNotCommercial  = NewError(ErrCodeInvalid, KindParticipantNotCommercial, "participant is not a commercial")
	ErrChatClosed                = NewError(ErrCodeConflict, KindChatClosed, "chat is closed")
	ErrMessageTooOld             = NewError(ErrCodeConflict, KindMessageTooOld, "message is older than the last message")
	ErrChatAlreadyClaimed        = NewError(ErrCodeConflict, KindChatAlreadyClaimed, "chat already claimed")
	ErrClaimNotFound             = NewError(ErrCodeNotFound, KindClaimNotFound, "claim not found")
	ErrUnauthorizedClaimRelease  = NewError(ErrCodeForbidden, KindUnauthorizedClaimRelease, "claim belongs to another commercial")
	ErrClaimAlreadyReleased      = NewError(ErrCodeConflict, KindClaimAlreadyReleased, "claim already released")
	ErrComercialCannotBeAssigned = NewError(ErrCodeConflict, KindComercialCannotBeAssigned, "commercial cannot be assigned to chat")
	ErrInvalidStatusTransition   = NewError(ErrCodeConflict, KindInvalidStatusTransition, "invalid status transition")
	ErrInvalidPayload            = NewError(ErrCodeInvalid, KindInvalidPayload, "invalid payload")
	ErrUnauthorized              = NewError(ErrCodeUnauthorized, KindUnauthorized, "unauthorized")
	ErrHandlerNotRegistered      = NewError(ErrCodeNotFound, KindHandlerNotRegistered, "handler not registered")
	ErrPresenceUnavailable       = NewError(ErrCodeInternal, KindPresenceUnavailable, "presence unavailable")
	ErrForbidden                 = NewError(ErrCodeForbidden, KindForbidden, "forbidden")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// KindOf returns the kind tag of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Kind
	}
	return ""
}
