package account

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/metisnation/registry/pkg/async"
	"github.com/metisnation/registry/pkg/logger"
	"github.com/metisnation/registry/pkg/statemachine"
)

var (
	// ErrStaleResult is returned by Flow.Run when the flow moved on, was reset
	// or closed while the task was running. The result must be dropped.
	ErrStaleResult       = errors.New("account: result belongs to an abandoned step")
	ErrFlowClosed        = errors.New("account: flow is closed")
	ErrInvalidTransition = errors.New("account: invalid flow transition")
)

const (
	MessageSignupConfirmed = "Your account has been confirmed. Please sign in."
	MessagePasswordReset   = "Your password has been reset. Please sign in with your new password."
)

// FlowContext is carried from one step to the next.
type FlowContext struct {
	Email   string
	Message string
}

// Transition describes a completed step change.
type Transition struct {
	From    Step
	To      Step
	Event   Event
	Context FlowContext
}

// Observer is notified after every transition, outside the flow lock.
type Observer func(ctx context.Context, t Transition)

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithFlowID sets the flow ID. Defaults to a random UUID.
func WithFlowID(id string) FlowOption {
	return func(f *Flow) { f.id = id }
}

// WithOnClose registers the callback run once when the flow is closed.
func WithOnClose(fn func(FlowContext)) FlowOption {
	return func(f *Flow) { f.onClose = fn }
}

// WithObserver adds a transition observer.
func WithObserver(o Observer) FlowOption {
	return func(f *Flow) {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
}

// WithInitialEmail pre-fills the context, e.g. for a confirmation link.
func WithInitialEmail(email string) FlowOption {
	return func(f *Flow) { f.fctx.Email = email }
}

// WithFlowLogger sets the logger for transition records.
func WithFlowLogger(log *slog.Logger) FlowOption {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

type (
	flowMachine = statemachine.Machine[Step, Event, FlowContext]
	flowOption  = statemachine.Option[Step, Event, FlowContext]
	flowGuard   = statemachine.Guard[Step, Event, FlowContext]
)

func edge(from, to Step, e Event, guards ...flowGuard) flowOption {
	opts := make([]statemachine.TransitionOption[Step, Event, FlowContext], 0, len(guards))
	for _, g := range guards {
		opts = append(opts, statemachine.WithGuard(g))
	}
	return statemachine.WithTransition(from, to, e, opts...)
}

// Confirmation and TOTP steps are meaningless without the address.
func hasEmail(_ context.Context, _ Step, _ Event, next FlowContext) bool {
	return next.Email != ""
}

func newFlowMachine(initial Step) (*flowMachine, error) {
	return statemachine.New(initial,
		edge(StepLogin, StepSignup, EventShowSignup),
		edge(StepLogin, StepForgotPassword, EventShowForgotPassword),
		edge(StepLogin, StepConfirmSignup, EventConfirmationRequired, hasEmail),
		edge(StepLogin, StepTOTP, EventTOTPRequired, hasEmail),
		edge(StepSignup, StepConfirmSignup, EventSignedUp, hasEmail),
		edge(StepConfirmSignup, StepLogin, EventSignupConfirmed),
		edge(StepForgotPassword, StepConfirmPasswordReset, EventResetRequested, hasEmail),
		edge(StepConfirmPasswordReset, StepLogin, EventPasswordReset),
		statemachine.WithTransitionsFrom[Step, Event, FlowContext](
			[]Step{StepSignup, StepForgotPassword, StepConfirmSignup, StepConfirmPasswordReset, StepTOTP},
			StepLogin, EventBack,
		),
	)
}

// Flow is one mounted authentication flow. All methods are safe for
// concurrent use.
type Flow struct {
	mu         sync.Mutex
	id         string
	machine    *flowMachine
	fctx       FlowContext
	generation uint64
	stepCtx    context.Context
	stepCancel context.CancelFunc
	closed     bool
	onClose    func(FlowContext)
	observers  []Observer
	log        *slog.Logger
}

// NewFlow creates a flow at initial with an empty context.
func NewFlow(initial Step, opts ...FlowOption) (*Flow, error) {
	m, err := newFlowMachine(initial)
	if err != nil {
		return nil, err
	}

	f := &Flow{
		id:      uuid.NewString(),
		machine: m,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.stepCtx, f.stepCancel = context.WithCancel(context.Background())
	return f, nil
}

// ID returns the flow ID.
func (f *Flow) ID() string { return f.id }

// Step returns the active step.
func (f *Flow) Step() Step { return f.machine.Current() }

// Context returns a copy of the flow context.
func (f *Flow) Context() FlowContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fctx
}

// Generation increases with every transition and reset.
func (f *Flow) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

// Closed reports whether Close was called.
func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ShowSignup moves from Login to Signup.
func (f *Flow) ShowSignup(ctx context.Context) error {
	return f.fire(ctx, EventShowSignup, FlowContext{})
}

// ShowForgotPassword moves from Login to ForgotPassword, keeping any typed
// address for the form.
func (f *Flow) ShowForgotPassword(ctx context.Context, email string) error {
	return f.fire(ctx, EventShowForgotPassword, FlowContext{Email: email})
}

// SignupSucceeded moves to ConfirmSignup for email.
func (f *Flow) SignupSucceeded(ctx context.Context, email string) error {
	return f.fire(ctx, EventSignedUp, FlowContext{Email: email})
}

// ConfirmationRequired moves from Login to ConfirmSignup without a banner.
func (f *Flow) ConfirmationRequired(ctx context.Context, email string) error {
	return f.fire(ctx, EventConfirmationRequired, FlowContext{Email: email})
}

// SignupConfirmed returns to Login with the success banner.
func (f *Flow) SignupConfirmed(ctx context.Context) error {
	return f.fire(ctx, EventSignupConfirmed, FlowContext{Message: MessageSignupConfirmed})
}

// ResetRequested moves to ConfirmPasswordReset for email.
func (f *Flow) ResetRequested(ctx context.Context, email string) error {
	return f.fire(ctx, EventResetRequested, FlowContext{Email: email})
}

// PasswordReset returns to Login with the success banner.
func (f *Flow) PasswordReset(ctx context.Context) error {
	return f.fire(ctx, EventPasswordReset, FlowContext{Message: MessagePasswordReset})
}

// TOTPRequired moves from Login to the authenticator code step.
func (f *Flow) TOTPRequired(ctx context.Context, email string) error {
	return f.fire(ctx, EventTOTPRequired, FlowContext{Email: email})
}

// Back returns to Login and clears the context.
func (f *Flow) Back(ctx context.Context) error {
	return f.fire(ctx, EventBack, FlowContext{})
}

// SetMessage shows msg in the success banner.
func (f *Flow) SetMessage(msg string) {
	f.mu.Lock()
	f.fctx.Message = msg
	f.mu.Unlock()
}

// DismissMessage clears the banner.
func (f *Flow) DismissMessage() {
	f.mu.Lock()
	f.fctx.Message = ""
	f.mu.Unlock()
}

// Reset returns to the initial step with an empty context and abandons
// running tasks.
func (f *Flow) Reset(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	from := f.machine.Current()
	f.machine.Reset()
	f.fctx = FlowContext{}
	f.advanceLocked()
	t := Transition{From: from, To: f.machine.Current(), Event: EventReset}
	observers := f.observers
	f.mu.Unlock()

	f.notify(ctx, observers, t)
	return nil
}

// Close abandons running tasks and runs the OnClose callback. Later calls
// are no-ops.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.stepCancel()
	fctx, onClose := f.fctx, f.onClose
	f.mu.Unlock()

	if onClose != nil {
		onClose(fctx)
	}
}

// Run executes fn as a task owned by the current step. fn's context is
// cancelled when the request context ends or the flow leaves the step, and
// in the latter case Run returns ErrStaleResult whatever fn returned.
func (f *Flow) Run(ctx context.Context, fn func(context.Context) error) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	gen, stepCtx := f.generation, f.stepCtx
	f.mu.Unlock()

	fut := async.Go(context.WithoutCancel(ctx), func(taskCtx context.Context) (struct{}, error) {
		return struct{}{}, fn(taskCtx)
	})
	stopStep := context.AfterFunc(stepCtx, fut.Cancel)
	defer stopStep()
	stopReq := context.AfterFunc(ctx, fut.Cancel)
	defer stopReq()

	_, err := fut.Await(context.Background())

	f.mu.Lock()
	stale := f.closed || f.generation != gen
	f.mu.Unlock()

	switch {
	case stale:
		return ErrStaleResult
	case errors.Is(err, async.ErrCancelled) && ctx.Err() != nil:
		return ctx.Err()
	default:
		return err
	}
}

func (f *Flow) fire(ctx context.Context, event Event, next FlowContext) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlowClosed
	}
	from := f.machine.Current()
	if err := f.machine.Fire(ctx, event, next); err != nil {
		f.mu.Unlock()
		return errors.Join(ErrInvalidTransition, err)
	}
	f.fctx = next
	f.advanceLocked()
	t := Transition{From: from, To: f.machine.Current(), Event: event, Context: next}
	observers := f.observers
	f.mu.Unlock()

	f.notify(ctx, observers, t)
	return nil
}

// advanceLocked starts a new generation and cancels the previous step's tasks.
func (f *Flow) advanceLocked() {
	f.generation++
	f.stepCancel()
	f.stepCtx, f.stepCancel = context.WithCancel(context.Background())
}

func (f *Flow) notify(ctx context.Context, observers []Observer, t Transition) {
	f.log.DebugContext(ctx, "flow transition",
		logger.FlowID(f.id),
		logger.Event(string(t.Event)),
		slog.String("from", string(t.From)),
		logger.Step(string(t.To)),
	)
	for _, o := range observers {
		o(ctx, t)
	}
}
