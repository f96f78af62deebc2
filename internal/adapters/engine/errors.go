package engine

import "errors"

var (
	ErrForeignObject      = errors.New("object does not belong to this engine")
	ErrLinkWrongDirection = errors.New("link: pads have wrong direction")
	ErrLinkWrongHierarchy = errors.New("link: pads are not in the same graph")
	ErrLinkNoFormat       = errors.New("link: caps are incompatible")
	ErrLinkRefused        = errors.New("link: refused")
	ErrWasLinked          = errors.New("link: pad was already linked")
	ErrNotLinked          = errors.New("pad is not linked")
	ErrFlushing           = errors.New("pad is flushing")
	ErrEOS                = errors.New("pad reached end of stream")
	ErrReleased           = errors.New("object released")
	ErrHasParent          = errors.New("element already has a parent")
	ErrNotInGraph         = errors.New("element is not in this graph")
	ErrNotABin            = errors.New("element is not a bin")
	ErrNotAppPad          = errors.New("pad is not fed by the application")
	ErrNoSuchFactory      = errors.New("no such element factory")
	ErrNoSuchProperty     = errors.New("no such property")
	ErrBadProperty        = errors.New("bad property value")
	ErrSyntax             = errors.New("syntax error in bin description")
	ErrDuplicatePad       = errors.New("pad name already used")
	ErrUnknownMessage     = errors.New("message without details")
)
