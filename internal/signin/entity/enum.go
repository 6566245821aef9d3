package entity

import "errors"

var (
	// ErrOTPRejected mean the server explicitly refused the submitted code.
	ErrOTPRejected = errors.New("signin: otp code rejected")

	// ErrNoSession mean no session is stored locally.
	ErrNoSession = errors.New("signin: no stored session")
)

// Phase is the position inside the two-step sign-in flow.
type Phase int16

const (
	// PhaseRequestingOTP mean the user is entering a phone number to get a
	// code. It is the zero value on purpose: a fresh flow starts here.
	PhaseRequestingOTP Phase = 0

	// PhaseVerifyingOTP mean a code has been sent and the user is entering it.
	PhaseVerifyingOTP Phase = 1
)

func (p Phase) String() string {
	switch p {
	case PhaseVerifyingOTP:
		return "VerifyingOTP"
	default:
		return "RequestingOTP"
	}
}

// Severity classifies a user-facing notification.
type Severity int16

const (
	// SeveritySuccess mean the message reports a completed action.
	SeveritySuccess Severity = 1

	// SeverityError mean the message reports a failure.
	SeverityError Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "Success"
	case SeverityError:
		return "Error"
	default:
		return "Unknown"
	}
}
