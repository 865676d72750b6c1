package form

import "errors"

// Sentinel kinds for form errors.
var (
	ErrEncode         = errors.New("payload encode failed")
	ErrInvalidDef     = errors.New("invalid form definition")
	ErrFieldNotFound  = errors.New("field not found")
	ErrEmptyFieldName = errors.New("field name must not be empty")
)
