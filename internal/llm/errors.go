package llm

import (
	"errors"
	"fmt"
)

// Category tags every backend failure with one of a closed set of causes.
type Category string

const (
	CategoryAuth           Category = "auth"
	CategoryRateLimit      Category = "rate_limit"
	CategoryNetwork        Category = "network"
	CategoryInvalidRequest Category = "invalid_request"
	CategoryServer         Category = "server"
	CategoryUnknown        Category = "unknown"
)

// retryable reports whether a category is transient.
func (c Category) retryable() bool {
	switch c {
	case CategoryRateLimit, CategoryNetwork, CategoryServer:
		return true
	}
	return false
}

// Error is the only error type this package returns for backend failures.
// Message is safe to show to an end user: no stack traces, but it carries
// compacted upstream error text so failures can be diagnosed.
type Error struct {
	Category Category
	Message  string
	Status   int // HTTP status when one was received, else 0
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %s", e.Category, e.Message)
}

// CategoryOf extracts the category from an error chain; non-backend errors
// report CategoryUnknown.
func CategoryOf(err error) Category {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Category
	}
	return CategoryUnknown
}
