package critical

import "errors"

var (
	ErrAlreadySet = errors.New("shared cell already populated")
)
