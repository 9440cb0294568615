package env

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEnvironment is returned when no provider is registered
	// under the requested environment name.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrDuplicateModule is returned when two different modules with the
	// same name end up in one composition.
	ErrDuplicateModule = errors.New("duplicate module")

	// ErrDependencyCycle is returned when module requirements form a cycle.
	ErrDependencyCycle = errors.New("module dependency cycle")

	// ErrModuleApplicationFailed matches every *ModuleError.
	ErrModuleApplicationFailed = errors.New("module application failed")

	// ErrDuplicateContainer is returned by Builder.AddContainer when the
	// container name is taken.
	ErrDuplicateContainer = errors.New("duplicate container")

	// ErrUnknownContainer is returned when a module exposes a port on a
	// container that no module has added.
	ErrUnknownContainer = errors.New("unknown container")
)

// ModuleError reports which module aborted a composition and why.
type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%v: module %q: %v", ErrModuleApplicationFailed, e.Module, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrModuleApplicationFailed) true for every
// ModuleError, regardless of the cause.
func (e *ModuleError) Is(target error) bool {
	return target == ErrModuleApplicationFailed
}
