package dynamo

import "errors"

// Domain errors for the gravity core.
var (
	// ErrOutOfBounds indicates a particle position outside the root bounding cube.
	ErrOutOfBounds = errors.New("dynamo: particle outside root bounds")

	// ErrInvalidMass indicates a zero, negative or non-finite particle mass.
	ErrInvalidMass = errors.New("dynamo: invalid particle mass")

	// ErrInvalidState indicates non-finite particle kinematics.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrEmptyStore indicates an operation that needs at least one particle.
	ErrEmptyStore = errors.New("dynamo: particle store is empty")
)
