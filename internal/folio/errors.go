package folio

import (
	"errors"
	"fmt"
)

// Kind classifies failures at the service boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindStore
	KindBlob
	KindUndetermined
	KindForbidden
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failure"
	case KindStore:
		return "store_failure"
	case KindBlob:
		return "blob_failure"
	case KindUndetermined:
		return "undetermined"
	case KindForbidden:
		return "forbidden"
	case KindDelivery:
		return "delivery_failure"
	default:
		return "unknown"
	}
}

// Sentinels matched with errors.Is against any *Error of the same kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failure")
	ErrStore        = errors.New("store failure")
	ErrBlob         = errors.New("blob failure")
	ErrUndetermined = errors.New("undetermined")
	ErrForbidden    = errors.New("forbidden")
	ErrDelivery     = errors.New("delivery failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindStore:
		return ErrStore
	case KindBlob:
		return ErrBlob
	case KindUndetermined:
		return ErrUndetermined
	case KindForbidden:
		return ErrForbidden
	case KindDelivery:
		return ErrDelivery
	default:
		return nil
	}
}

// Error is the typed failure returned by FolioService and Dispatcher.
type Error struct {
	Kind   Kind
	Op     string // operation name, e.g. "MoveImage"
	Entity string // entity type, e.g. "image"
	ID     string // entity id, when known
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Entity != "" {
		msg += " " + e.Entity
		if e.ID != "" {
			msg += " " + e.ID
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Kind)
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// for either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func notFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Entity: entity, ID: id}
}

func invalid(op, entity, id, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Entity: entity, ID: id, Err: fmt.Errorf(format, args...)}
}

func storeFailure(op, entity, id string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Entity: entity, ID: id, Err: err}
}

func blobFailure(op, entity, id string, err error) *Error {
	return &Error{Kind: KindBlob, Op: op, Entity: entity, ID: id, Err: err}
}

func forbidden(op, entity, id string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Entity: entity, ID: id}
}

// classify keeps an existing *Error (e.g. a validation or blob error raised
// inside a store transaction) and wraps anything else as a store failure.
func classify(op, entity, id string, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Op == "" {
			fe.Op = op
		}
		return fe
	}
	return storeFailure(op, entity, id, err)
}
