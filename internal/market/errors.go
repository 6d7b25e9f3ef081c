package market

import "errors"

var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrForbidden             = errors.New("operation not permitted for this account")
	ErrNotApproved           = errors.New("account is not approved")
	ErrAdminSelfRegistration = errors.New("admin accounts cannot self-register")
	ErrInvalidRole           = errors.New("invalid role")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidPrice          = errors.New("invalid price")
	ErrListingUnavailable    = errors.New("listing is not available")
	ErrOwnListing            = errors.New("cannot order from own listing")
	ErrInvalidPaymentType    = errors.New("invalid payment type")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrInvalidPhoneNumber    = errors.New("invalid phone number")
	ErrAmountMismatch        = errors.New("payment amount does not match order total")
	ErrEmptyCart             = errors.New("cart is empty")
)
