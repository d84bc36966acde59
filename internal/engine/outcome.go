package engine

import (
	"errors"
	"fmt"

	ferrors "github.com/julianstephens/fleetcal/internal/errors"
)

// Op names an engine operation in outcomes and errors.
type Op string

const (
	OpLoad     Op = "load"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpComplete Op = "complete"
)

// Outcome reports one finished load or mutation attempt.
type Outcome struct {
	Op       Op
	OK       bool
	Kind     ferrors.Kind
	RecordID string
	Message  string
}

func (o Outcome) String() string {
	if o.OK {
		return o.Message
	}
	return fmt.Sprintf("%s failed (%s): %s", o.Op, o.Kind, o.Message)
}

func success(op Op, id, format string, args ...any) Outcome {
	return Outcome{
		Op:       op,
		OK:       true,
		RecordID: id,
		Message:  fmt.Sprintf(format, args...),
	}
}

func failure(op Op, id string, err error) Outcome {
	o := Outcome{
		Op:       op,
		Kind:     ferrors.KindOf(err),
		RecordID: id,
		Message:  err.Error(),
	}
	var fe *ferrors.Error
	if errors.As(err, &fe) {
		o.Message = fe.Reason()
	}
	return o
}

// emit delivers o without blocking. Outcomes are dropped when nobody drains
// the channel; the snapshot itself is always current.
func (e *Engine) emit(o Outcome) {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	if e.closed {
		return
	}
	select {
	case e.outcomes <- o:
	default:
	}
}
