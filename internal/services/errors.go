package services

import "errors"

// ErrorKind classifies a service failure for the transport layer
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindDuplicate
	KindInvalidState
	KindValidationFailed
	KindExceedsRemaining
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindUnauthorized:
		return "Unauthorized"
	case KindDuplicate:
		return "Duplicate"
	case KindInvalidState:
		return "InvalidState"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindExceedsRemaining:
		return "ExceedsRemaining"
	default:
		return "Internal"
	}
}

// Error is a business failure carrying a client-safe message
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, or KindInternal for infrastructure errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Identity
var (
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrDuplicateEmail     = newError(KindDuplicate, "a user with this email already exists")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid email or password")
	ErrInvalidToken       = newError(KindUnauthorized, "invalid or expired token")
)

// Charity directory
var (
	ErrCharityNotFound       = newError(KindNotFound, "charity not found")
	ErrDuplicateRegistration = newError(KindDuplicate, "a charity with this registration number already exists")
	ErrMissingBankDetails    = newError(KindValidationFailed, "all bank details are required")
	ErrHasActiveCampaigns    = newError(KindInvalidState, "charity still has active campaigns besides its general fund")
	ErrNotCharityCreator     = newError(KindForbidden, "only the charity creator can modify it")
)

// Fundraising campaigns
var (
	ErrFundraisingNotFound = newError(KindNotFound, "fundraising campaign not found")
	ErrNotVerified         = newError(KindInvalidState, "charity must be verified to create campaigns")
	ErrCharityMismatch     = newError(KindValidationFailed, "campaign does not belong to this charity")
	ErrAlreadyCompleted    = newError(KindInvalidState, "campaign is already completed")
	ErrMissingReport       = newError(KindInvalidState, "campaign cannot be completed without a report")
	ErrInvalidTarget       = newError(KindValidationFailed, "target amount must be positive")
	ErrInvalidDateRange    = newError(KindValidationFailed, "end date must not be before start date")
)

// Donation settlement
var (
	ErrDonationNotFound   = newError(KindNotFound, "donation not found")
	ErrNoGeneralFund      = newError(KindNotFound, "general fund not found")
	ErrCampaignInactive   = newError(KindInvalidState, "campaign no longer accepts donations")
	ErrCharityNotVerified = newError(KindInvalidState, "charity must be verified to accept donations")
	ErrExceedsRemaining   = newError(KindExceedsRemaining, "donation exceeds the remaining amount of the campaign")
	ErrInvalidAmount      = newError(KindValidationFailed, "amount must be positive")
	ErrInvalidStatus      = newError(KindValidationFailed, "unknown payment status")
	ErrNotDonationOwner   = newError(KindForbidden, "no permission to delete this donation")
	ErrDonationCompleted  = newError(KindInvalidState, "completed donation cannot be updated")
	ErrRecurringNotFound  = newError(KindNotFound, "recurring payment not found")
	ErrNotRecurringOwner  = newError(KindForbidden, "no permission to cancel this recurring payment")
	ErrInvalidPaymentDay  = newError(KindValidationFailed, "payment day must be between 1 and 31")
)

// Reports
var (
	ErrReportNotFound     = newError(KindNotFound, "report not found")
	ErrNotCampaignCreator = newError(KindForbidden, "only the campaign creator can file its report")
	ErrAmountMismatch     = newError(KindValidationFailed, "spent amount must match the collected amount")
	ErrReportExists       = newError(KindInvalidState, "campaign already has a report")
)
