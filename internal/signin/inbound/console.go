package inbound

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

// Console renders flow feedback on a terminal. It is the concrete
// notification sink and field-error sink injected into the flow.
type Console struct {
	out io.Writer

	mu        sync.Mutex
	fieldErrs map[string]string
}

func NewConsole(out io.Writer) *Console {
	return &Console{
		out:       out,
		fieldErrs: make(map[string]string),
	}
}

// Notify prints a one-line message with a severity marker.
func (c *Console) Notify(_ context.Context, severity entity.Severity, message string) {
	marker := lo.Ternary(severity == entity.SeverityError, "!!", "ok")
	fmt.Fprintf(c.out, "%s %s\n", marker, message)
}

// SetFieldError records and prints a message attached to a single input.
func (c *Console) SetFieldError(field, message string) {
	c.mu.Lock()
	c.fieldErrs[field] = message
	c.mu.Unlock()

	fmt.Fprintf(c.out, "   %s: %s\n", field, message)
}

// ClearFieldErrors drops recorded messages for the given fields, or all of
// them when none are named.
func (c *Console) ClearFieldErrors(fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(fields) == 0 {
		clear(c.fieldErrs)
		return
	}

	for _, field := range fields {
		delete(c.fieldErrs, field)
	}
}

// FieldErrors returns a copy of the currently recorded field errors.
func (c *Console) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.fieldErrs))
	for field, msg := range c.fieldErrs {
		out[field] = msg
	}

	return out
}
