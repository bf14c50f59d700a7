package registry

import "errors"

type ErrorKind string

const (
	ErrKindActivityNotFound ErrorKind = "ACTIVITY_NOT_FOUND"
	ErrKindAlreadySignedUp  ErrorKind = "ALREADY_SIGNED_UP"
	ErrKindNotSignedUp      ErrorKind = "NOT_SIGNED_UP"
	ErrKindInvalidSeed      ErrorKind = "INVALID_SEED"
)

type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsKind(err error, kind ErrorKind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

// ActivityNotFound, AlreadySignedUp and NotSignedUp build the kinded errors
// every Backend returns.
func ActivityNotFound(name string) error {
	return &Error{Kind: ErrKindActivityNotFound, Msg: "activity not found: " + name}
}

func AlreadySignedUp(name, email string) error {
	return &Error{Kind: ErrKindAlreadySignedUp, Msg: email + " already signed up for " + name}
}

func NotSignedUp(name, email string) error {
	return &Error{Kind: ErrKindNotSignedUp, Msg: email + " is not signed up for " + name}
}

func invalidSeed(msg string) error {
	return &Error{Kind: ErrKindInvalidSeed, Msg: "invalid seed: " + msg}
}
