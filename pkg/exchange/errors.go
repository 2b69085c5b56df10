package exchange

import "errors"

// Settlement error taxonomy. Every failure aborts the whole call; nothing is
// retried internally and no partial effects may persist.
var (
	// ErrInvalidSignature - signature malformed or recovered signer != declared maker
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidOrderParameters - the two orders do not form a matchable pair
	ErrInvalidOrderParameters = errors.New("invalid order parameters")

	// ErrOrderExpiredOrNotStarted - current time outside an order's [start,end] window
	ErrOrderExpiredOrNotStarted = errors.New("order expired or not started")

	// ErrOrderNotOpen - order hash already Filled or Cancelled
	ErrOrderNotOpen = errors.New("order not open")

	// ErrUnauthorizedCaller - caller is not the side allowed to settle this pair
	ErrUnauthorizedCaller = errors.New("unauthorized caller")

	// ErrUnauthorizedCancel - cancel attempted by someone other than the maker
	ErrUnauthorizedCancel = errors.New("unauthorized cancel")

	// ErrInvalidPayment - attached native payment inconsistent with the payment mode
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrFeeOverflow - platform fee plus royalty exceeds 10000 bps
	ErrFeeOverflow = errors.New("fee plus royalty exceeds 10000 bps")

	// ErrArithmeticOverflow - a fee computation exceeded 256-bit width
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrLengthMismatch - guarded merge inputs differ in length
	ErrLengthMismatch = errors.New("buffer length mismatch")
)
