package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/loanml/dataset"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/sample"
)

// DatasetSource supplies the splits create_model and evaluate_model work on.
type DatasetSource interface {
	Train() *dataset.Dataset
	Test() *dataset.Dataset
}

// Event describes one finished invocation.
type Event struct {
	CallID    string
	Operation string
	// Registered is false when Operation names no registered operation.
	Registered bool
	Success    bool
	Code       string
	Duration   time.Duration
	Err        error
}

// Observer is notified after every invocation.
type Observer func(Event)

// LogObserver logs each invocation: failures at warn level, successes at info.
func LogObserver(logger log.Logger) Observer {
	return func(ev Event) {
		fields := []any{
			log.CallIDKey, ev.CallID,
			log.ToolKey, ev.Operation,
			log.SuccessKey, ev.Success,
			log.DurationMsKey, ev.Duration.Milliseconds(),
		}
		if ev.Err != nil {
			logger.Warn("Operation failed", append([]any{ev.Err, log.ErrorCodeKey, ev.Code}, fields...)...)
			return
		}
		logger.Info("Operation completed", fields...)
	}
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithObserver registers an invocation observer.
func WithObserver(obs Observer) Option {
	return func(g *Gateway) { g.observers = append(g.observers, obs) }
}

// WithDefaultHyperparameters sets the hyperparameters create_model uses when
// the caller omits them. Fields the caller does provide are written over hp.
func WithDefaultHyperparameters(hp lifecycle.Hyperparameters) Option {
	return func(g *Gateway) { g.defaults = hp }
}

// Gateway dispatches named operations to the engine and the sample state.
type Gateway struct {
	registry  *Registry
	engine    *lifecycle.Engine
	state     *sample.State
	data      DatasetSource
	defaults  lifecycle.Hyperparameters
	observers []Observer
	now       func() time.Time
}

// New builds the gateway and its registry. data may be nil, in which case
// create_model reports a training failure and evaluate_model an invalid argument.
func New(engine *lifecycle.Engine, state *sample.State, data DatasetSource, opts ...Option) (*Gateway, error) {
	if engine == nil || state == nil {
		return nil, errors.NewInvalidArgumentError("gateway", "engine and sample state are required", nil)
	}
	g := &Gateway{
		engine:   engine,
		state:    state,
		data:     data,
		defaults: lifecycle.DefaultHyperparameters(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	registry, err := NewRegistry(g.operations()...)
	if err != nil {
		return nil, err
	}
	g.registry = registry
	return g, nil
}

// Registry returns the operation table.
func (g *Gateway) Registry() *Registry { return g.registry }

// Definitions returns the operation manifest.
func (g *Gateway) Definitions() []Definition { return g.registry.Definitions() }

// Invoke validates args against the named operation's schema and runs it. Unknown
// names, schema violations, engine errors and panics all come back as a failed
// Response carrying an error code.
func (g *Gateway) Invoke(ctx context.Context, name string, args json.RawMessage) Response {
	start := g.now()
	callID := uuid.NewString()

	var (
		resp Response
		err  error
	)
	op, ok := g.registry.Lookup(name)
	if !ok {
		err = errors.NewInvalidArgumentError("name", "unknown operation", name)
	} else {
		err = errors.SafeExecute("gateway."+name, func() error {
			validated, verr := op.validate(args)
			if verr != nil {
				return verr
			}
			var herr error
			resp, herr = op.Handler(ctx, validated)
			return herr
		})
	}
	if err != nil {
		resp = failure(err)
	}

	ev := Event{
		CallID:     callID,
		Operation:  name,
		Registered: ok,
		Success:    resp.Success,
		Duration:   g.now().Sub(start),
		Err:        err,
	}
	if err != nil {
		ev.Code = errors.Code(err)
	}
	for _, obs := range g.observers {
		obs(ev)
	}
	return resp
}

func failure(err error) Response {
	detail := &ErrorDetail{Code: errors.Code(err), Message: err.Error()}

	var notTrained *errors.ModelNotTrainedError
	if errors.As(err, &notTrained) {
		detail.Suggestion = notTrained.Suggestion()
		return Response{Success: false, Message: MessageNoModel, Terminate: true, Error: detail}
	}
	return Response{Success: false, Message: err.Error(), Error: detail}
}
