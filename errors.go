package formengine

import "errors"

var (
	ErrSubmitted          = errors.New("form already submitted")
	ErrIncompatibleFormat = errors.New("incompatible checkpoint version")
	ErrInvalidState       = errors.New("invalid form state")
)
