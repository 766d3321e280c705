package models

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateSymbol = errors.New("symbol already exists")
	ErrServiceClosed   = errors.New("service closed")
)
