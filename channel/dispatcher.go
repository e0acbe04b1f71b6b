// Package channel exposes the capture engine to a host over a small
// method-call protocol: a method name plus a map of arguments in, a value
// or a coded error out.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Error codes returned to the host.
const (
	CodeInvalidArguments     = "INVALID_ARGUMENTS"
	CodeInitializationFailed = "INITIALIZATION_FAILED"
	CodeCaptureFailed        = "CAPTURE_FAILED"
	CodeNotImplemented       = "NOT_IMPLEMENTED"
)

// Call is one request from the host.
type Call struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Error is a coded failure the host can switch on.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the host error code for err. Errors that are not *Error
// map to CAPTURE_FAILED.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeCaptureFailed
}

// Handler serves one method.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Dispatcher routes calls to handlers by method name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      *slog.Logger
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{handlers: make(map[string]Handler), log: log}
}

// Register binds method to h, replacing any previous handler.
func (d *Dispatcher) Register(method string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

// Methods lists the registered method names in order.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle runs the handler for call.Method. A panicking handler is reported
// as CAPTURE_FAILED.
func (d *Dispatcher) Handle(ctx context.Context, call Call) (result any, err error) {
	d.mu.RLock()
	h, ok := d.handlers[call.Method]
	d.mu.RUnlock()
	if !ok {
		return nil, &Error{Code: CodeNotImplemented, Message: fmt.Sprintf("method %q is not implemented", call.Method)}
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panicked", "method", call.Method, "panic", r)
			result = nil
			err = &Error{Code: CodeCaptureFailed, Message: "internal error", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = h(ctx, call.Arguments)
	if err != nil {
		d.log.Debug("call failed", "method", call.Method, "code", CodeOf(err), "error", err)
	}
	return result, err
}
