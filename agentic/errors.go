package agentic

import "errors"

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrToolDuplicate = errors.New("tool already registered")
	ErrInvalidInput  = errors.New("invalid tool input")
)
