// Package apperr is the error taxonomy shared by the client components.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork covers transport failures, timeouts and non-2xx responses.
	KindNetwork
	// KindValidation covers input rejected locally or by the API.
	KindValidation
	// KindConfiguration covers missing credentials or settings.
	KindConfiguration
	// KindTranscription covers speech recognition cancellations.
	KindTranscription
	// KindBusy is returned when an exclusive operation is already running.
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindTranscription:
		return "transcription"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	// Status is the HTTP status when the error came from a response, 0 otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String() + " error"
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Network(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// NetworkStatus reports a non-2xx HTTP response.
func NetworkStatus(op string, status int) error {
	return &Error{Kind: KindNetwork, Op: op, Status: status}
}

func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func Transcription(op string, detail string) error {
	return &Error{Kind: KindTranscription, Op: op, Err: errors.New(detail)}
}

func Busy(op string) error {
	return &Error{Kind: KindBusy, Op: op}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
