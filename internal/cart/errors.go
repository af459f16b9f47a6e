package cart

import "errors"

var (
	// ErrAuthRequired is returned by Checkout when the session has no credential.
	ErrAuthRequired = errors.New("cart: sign-in required")

	ErrCheckoutFailed = errors.New("cart: checkout failed")
)

// CheckoutError carries the remote failure that aborted a checkout. The cart
// is left as it was so the user can retry.
type CheckoutError struct {
	Err error
}

func (e *CheckoutError) Error() string {
	return ErrCheckoutFailed.Error() + ": " + e.Err.Error()
}

func (e *CheckoutError) Unwrap() []error {
	return []error{ErrCheckoutFailed, e.Err}
}
