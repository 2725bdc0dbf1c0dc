package Maintenance

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrMaterialInUse = errors.New("material already attached to another job card")
)
