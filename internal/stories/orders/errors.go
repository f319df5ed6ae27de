package orders

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound                 = errors.New("order not found")
	ErrNotMaster                = errors.New("user is not a registered master")
	ErrAlreadyTaken             = errors.New("order already taken")
	ErrNotAssigned              = errors.New("order is assigned to another master")
	ErrInvalidTransition        = errors.New("transition not allowed in current status")
	ErrConcurrentUpdate         = errors.New("order changed concurrently")
	ErrAlreadyCompleted         = errors.New("order already completed")
	ErrMissingBeforePhoto       = errors.New("before photo missing")
	ErrMissingAfterPhoto        = errors.New("after photo missing")
	ErrMissingCompletionGPS     = errors.New("completion location missing")
	ErrWarrantyUndecided        = errors.New("warranty not decided")
	ErrMissingSparePartPhoto    = errors.New("spare part photo missing")
	ErrSparePartNotReceived     = errors.New("spare part not received yet")
	ErrSparePartAlreadyReceived = errors.New("spare part already received")
	ErrSparePartNotSent         = errors.New("spare part photo not sent yet")
	ErrWorkTypeNotAllowed       = errors.New("work type cannot be set on a warranty order")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInvalidInput             = errors.New("invalid order data")
)

// ShortageError reports how much stock an order lacked.
type ShortageError struct {
	Product   string
	Region    string
	Requested int
	Available int
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %q in %q: requested %d, available %d",
		e.Product, e.Region, e.Requested, e.Available)
}

func (e *ShortageError) Unwrap() error {
	return ErrInsufficientStock
}

func (e *ShortageError) Shortfall() int {
	return e.Requested - e.Available
}
