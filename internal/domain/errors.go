package domain

import "errors"

var (
	ErrProgressNotFound = errors.New("progress not found")
	ErrModelNotFound    = errors.New("model class not registered")
	ErrManagerClosed    = errors.New("model manager is shut down")
)
