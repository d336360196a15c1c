package sgd

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument matches every *InvalidArgumentError via errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrShapeMismatch matches every *ShapeMismatchError via errors.Is.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// InvalidArgumentError reports a hyperparameter or callable that the
// optimizer refuses to run with.
type InvalidArgumentError struct {
	Name    string
	Value   interface{}
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q (%v): %s", e.Name, e.Value, e.Message)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ShapeMismatchError reports operands whose lengths do not line up.
type ShapeMismatchError struct {
	Name string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch for %q: want %d, got %d", e.Name, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

func invalidArgument(name string, value interface{}, message string) error {
	return errors.WithStack(&InvalidArgumentError{
		Name:    name,
		Value:   value,
		Message: message,
	})
}

func shapeMismatch(name string, want, got int) error {
	return errors.WithStack(&ShapeMismatchError{
		Name: name,
		Want: want,
		Got:  got,
	})
}
