package errors

import "fmt"

// ErrValidation indicates a malformed or incomplete request. User-correctable.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// ErrNotFound indicates a referenced entity does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a missing or invalid credential
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrForbidden indicates the caller is authenticated but not allowed
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	return e.Message
}

// ErrInsufficientStock indicates a requested quantity exceeds available stock.
// SKU is empty for simple products.
type ErrInsufficientStock struct {
	ProductName string
	SKU         string
}

func (e *ErrInsufficientStock) Error() string {
	if e.SKU != "" {
		return fmt.Sprintf("not enough stock for %s (%s)", e.ProductName, e.SKU)
	}
	return fmt.Sprintf("not enough stock for %s", e.ProductName)
}

// ErrInsufficientWalletBalance indicates a redemption larger than the user's balance
type ErrInsufficientWalletBalance struct {
	Balance   int
	Requested int
}

func (e *ErrInsufficientWalletBalance) Error() string {
	return fmt.Sprintf("wallet balance %d is less than requested %d points", e.Balance, e.Requested)
}

// ErrPaymentVerificationFailed indicates the gateway payment proof did not validate
type ErrPaymentVerificationFailed struct{}

func (e *ErrPaymentVerificationFailed) Error() string {
	return "payment signature verification failed"
}

// ErrOrderNotCancellable indicates the order is in a terminal or shipped state
type ErrOrderNotCancellable struct {
	Status string
}

func (e *ErrOrderNotCancellable) Error() string {
	return fmt.Sprintf("order is already %s and cannot be cancelled", e.Status)
}

// ErrInvalidStateTransition indicates a disallowed order status change
type ErrInvalidStateTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrExternalService wraps a failed or timed-out call to a collaborator
// (payment gateway, carrier, data store). The underlying error is never
// surfaced raw across the core boundary.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}
