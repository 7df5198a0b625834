package ledger

import "fmt"

// Code is the stable error code surfaced to callers
type Code int

const (
	CodeFatal Code = iota
	CodeVestingNotStarted
	CodeUser
	CodeInsufficientBalance
	CodeAdmin
	CodeAlreadyInitialized
	CodeInvalidSchedule
	CodeNotReleased
)

func (c Code) String() string {
	switch c {
	case CodeFatal:
		return "FatalError"
	case CodeVestingNotStarted:
		return "VestingStartError"
	case CodeUser:
		return "UserError"
	case CodeInsufficientBalance:
		return "InsufficientBalance"
	case CodeAdmin:
		return "AdminError"
	case CodeAlreadyInitialized:
		return "AlreadyInitialized"
	case CodeInvalidSchedule:
		return "InvalidSchedule"
	case CodeNotReleased:
		return "ReleaseError"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrFatal              = &Error{Code: CodeFatal}
	ErrVestingNotStarted  = &Error{Code: CodeVestingNotStarted}
	ErrUnauthorized       = &Error{Code: CodeUser}
	ErrNothingToClaim     = &Error{Code: CodeInsufficientBalance}
	ErrAdmin              = &Error{Code: CodeAdmin}
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized}
	ErrInvalidSchedule    = &Error{Code: CodeInvalidSchedule}
	ErrNotReleased        = &Error{Code: CodeNotReleased}
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func NewError(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
