package form

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/metisnation/registry/pkg/autherr"
	"github.com/metisnation/registry/pkg/validator"
)

// State is a snapshot of a form.
type State[T any] struct {
	Values      T
	FieldErrors map[string]string
	Submitting  bool
	Error       string
	Success     bool
}

// SubmitFunc performs the submission with validated data.
type SubmitFunc[T any] func(ctx context.Context, data T) error

// Controller manages one form's submission lifecycle. It is safe for
// concurrent use.
type Controller[T any] struct {
	mu    sync.Mutex
	state State[T]

	submit         SubmitFunc[T]
	validate       func(T) (T, error)
	intercept      func(ctx context.Context, data T, err error) bool
	onSuccess      func(ctx context.Context, data T)
	discard        func(error) bool
	errContext     autherr.Context
	resetOnSuccess bool
}

// Option configures a Controller.
type Option[T any] func(*Controller[T])

// WithValidator sets the schema. It returns the normalized data or
// validator.ValidationErrors.
func WithValidator[T any](fn func(T) (T, error)) Option[T] {
	return func(c *Controller[T]) {
		c.validate = fn
	}
}

// WithIntercept registers a hook that sees submit errors before the
// classifier. Returning true means the hook handled the error and no banner
// is shown.
func WithIntercept[T any](fn func(ctx context.Context, data T, err error) bool) Option[T] {
	return func(c *Controller[T]) {
		c.intercept = fn
	}
}

// WithOnSuccess registers a callback invoked with the validated data.
func WithOnSuccess[T any](fn func(ctx context.Context, data T)) Option[T] {
	return func(c *Controller[T]) {
		c.onSuccess = fn
	}
}

// WithDiscard drops results whose error matches fn: the state is left as it
// was before the submission, apart from the submitting flag.
func WithDiscard[T any](fn func(error) bool) Option[T] {
	return func(c *Controller[T]) {
		c.discard = fn
	}
}

// WithErrorContext selects how errors are surfaced.
func WithErrorContext[T any](ctx autherr.Context) Option[T] {
	return func(c *Controller[T]) {
		c.errContext = ctx
	}
}

// WithResetOnSuccess clears the values after a successful submission.
func WithResetOnSuccess[T any]() Option[T] {
	return func(c *Controller[T]) {
		c.resetOnSuccess = true
	}
}

// WithInitialValues pre-fills the form.
func WithInitialValues[T any](values T) Option[T] {
	return func(c *Controller[T]) {
		c.state.Values = values
	}
}

// New creates a controller.
func New[T any](submit SubmitFunc[T], opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{submit: submit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates values and runs the submit function.
//
// It returns ErrInFlight without doing anything while another submission is
// pending, the validator.ValidationErrors when validation fails, and the
// submit error otherwise. A failure hidden by the error context is returned
// joined with ErrSuppressed.
func (c *Controller[T]) Submit(ctx context.Context, values T) error {
	c.mu.Lock()
	if c.state.Submitting {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.state.Values = values
	c.state.Success = false

	data := values
	if c.validate != nil {
		normalized, err := c.validate(values)
		if err != nil {
			c.state.FieldErrors = fieldErrors(err)
			c.mu.Unlock()
			return err
		}
		data = normalized
	}
	c.state.FieldErrors = nil
	c.state.Values = data
	c.state.Submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Submitting = false
		c.mu.Unlock()
	}()

	if err := c.submit(ctx, data); err != nil {
		if c.discard != nil && c.discard(err) {
			return err
		}
		return c.fail(ctx, data, err)
	}

	c.mu.Lock()
	c.state.Error = ""
	c.state.Success = true
	if c.resetOnSuccess {
		var zero T
		c.state.Values = zero
	}
	c.mu.Unlock()

	if c.onSuccess != nil {
		c.onSuccess(ctx, data)
	}
	return nil
}

func (c *Controller[T]) fail(ctx context.Context, data T, err error) error {
	if c.intercept != nil && c.intercept(ctx, data, err) {
		c.setError("")
		return err
	}

	msg, ok := autherr.Process(err, c.errContext)
	c.setError(msg)
	if !ok {
		return errors.Join(ErrSuppressed, err)
	}
	return err
}

func (c *Controller[T]) setError(msg string) {
	c.mu.Lock()
	c.state.Error = msg
	c.mu.Unlock()
}

// SetError shows msg in the banner without submitting.
func (c *Controller[T]) SetError(msg string) {
	c.setError(msg)
}

// Dismiss clears the banner and keeps the values.
func (c *Controller[T]) Dismiss() {
	c.setError("")
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.FieldErrors = maps.Clone(c.state.FieldErrors)
	return s
}

func fieldErrors(err error) map[string]string {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		return verrs.FieldMap()
	}
	return map[string]string{"": err.Error()}
}
