package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyRedeemed    = errors.New("code already redeemed")
	ErrInvalidCode        = errors.New("invalid code")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyVoted       = errors.New("already voted")
)

// Failure is a business failure carrying the message shown to the end user.
// It unwraps to one of the sentinel errors above.
type Failure struct {
	Kind    error
	Message string
}

// Fail returns a Failure of the given kind.
func Fail(kind error, message string) error {
	return &Failure{Kind: kind, Message: message}
}

func (f *Failure) Error() string {
	return f.Kind.Error() + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Kind
}

// UserMessage returns the end-user text for a business failure. Errors that
// are not business failures get a generic message so internals never leak.
func UserMessage(err error) string {
	var f *Failure
	switch {
	case err == nil:
		return ""
	case errors.As(err, &f):
		return f.Message
	case errors.Is(err, ErrNotAuthenticated):
		return "Please login first."
	case errors.Is(err, ErrForbidden):
		return "Only administrators can do that."
	case errors.Is(err, ErrAlreadyRedeemed):
		return "Code already redeemed."
	case errors.Is(err, ErrInvalidCode):
		return "Invalid code."
	case errors.Is(err, ErrInsufficientPoints):
		return "Not enough points!"
	case errors.Is(err, ErrAlreadyVoted):
		return "You have already voted."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrInvalidInput):
		return "Please check your input and try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
