package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotEnoughSamples = errors.New("not enough samples for generation")
	ErrQueueFull        = errors.New("worker queue full")
)
