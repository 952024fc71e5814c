// Package dynamo holds the primitives shared by every layer of the gravity
// core:
//
//   - the error taxonomy ([ErrOutOfBounds], [ErrInvalidMass], [ErrInvalidState],
//     [ErrUnstable], ...) checked with errors.Is by callers
//   - [ParallelFor], the chunked worker split used for the read-only force
//     evaluation phase
//
// # Thread Safety
//
// Nothing in this package holds state. ParallelFor blocks until every chunk
// has returned.
package dynamo
