package identity

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput           Kind = "InvalidInput"
	KindProviderExchangeFailed Kind = "ProviderExchangeFailed"
	KindNoEmailAvailable       Kind = "NoEmailAvailable"
	KindAdminMustUseAdminLogin Kind = "AdminMustUseAdminLogin"
	KindPendingApproval        Kind = "PendingApproval"
	KindApplicationRejected    Kind = "ApplicationRejected"
	KindAccountDeactivated     Kind = "AccountDeactivated"
	KindStoreFailure           Kind = "StoreFailure"
)

// Status is the HTTP status a handler should answer with.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindProviderExchangeFailed, KindNoEmailAvailable:
		return http.StatusBadRequest
	case KindAdminMustUseAdminLogin, KindPendingApproval, KindApplicationRejected, KindAccountDeactivated:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is the only error type Authenticate returns.
type Error struct {
	Kind    Kind
	Message string
	// Detail is safe to return to the caller, e.g. the provider's raw
	// rejection payload.
	Detail    any
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func storeError(msg string, err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: msg, Retryable: true, Err: err}
}
