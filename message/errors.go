package message

import (
	"errors"
	"fmt"
)

// ErrLogic matches every caller contract violation raised by this package.
var ErrLogic = errors.New("logic error")

// UnsupportedTypeError is returned when a value cannot be placed in a message.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("not implemented parameter type: %s", e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrLogic }

// ConversionError is returned when a column cannot be read as the requested type.
type ConversionError struct {
	From string
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid conversion from %s to %s", e.From, e.To)
}

func (e *ConversionError) Is(target error) bool { return target == ErrLogic }

// IndexError is returned for a column index outside the row.
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("column index %d out of range [0,%d)", e.Index, e.Count)
}

func (e *IndexError) Is(target error) bool { return target == ErrLogic }

// BoundsError is returned when a payload does not fit its slot or a slot lies
// outside the buffer.
type BoundsError struct {
	Column int
	Need   int
	Have   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("column %d: payload of %d bytes does not fit slot of %d bytes", e.Column, e.Need, e.Have)
}

func (e *BoundsError) Is(target error) bool { return target == ErrLogic }
