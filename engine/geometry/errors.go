package geometry

import "errors"

var (
	// ErrInvalidShape is returned when shape parameters are out of range.
	ErrInvalidShape = errors.New("invalid shape parameters")
	// ErrInvalidMesh is returned by Mesh.Validate.
	ErrInvalidMesh = errors.New("invalid mesh")
)
