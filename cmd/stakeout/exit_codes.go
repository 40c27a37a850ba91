package main

import "fmt"

const (
	exitCodeSuccess = 0
	exitCodeUsage   = 1
	exitCodeConfig  = 2
)

// startupError carries the exit code a startup failure should produce.
type startupError struct {
	Code    int
	Message string
}

func (e *startupError) Error() string {
	return e.Message
}

func startupErrf(code int, format string, args ...any) *startupError {
	return &startupError{Code: code, Message: fmt.Sprintf(format, args...)}
}
