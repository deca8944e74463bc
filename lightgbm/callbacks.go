package lightgbm

import (
	"math"
	"time"

	"github.com/YuminosukeSato/loanml/pkg/log"
)

// Metric names reported in CallbackEnv.EvalResults.
const MetricTrainingLogloss = "training_binary_logloss"

// CallbackEnv is the state passed to callbacks around each boosting iteration.
type CallbackEnv struct {
	Model        *Model
	Iteration    int
	BeginTime    time.Time
	EndTime      time.Time
	EvalResults  map[string]float64
	StopTraining bool
}

// Callback is invoked by the trainer. Setting env.StopTraining ends training after
// the current iteration; returning an error aborts it.
type Callback func(env *CallbackEnv) error

// RecordEvaluation appends every evaluation result to history.
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for name, value := range env.EvalResults {
			(*history)[name] = append((*history)[name], value)
		}
		return nil
	}
}

// LogEvaluation logs the evaluation results every period iterations.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.EvalResults == nil || env.Iteration%period != 0 {
			return nil
		}
		fields := []any{log.IterationKey, env.Iteration}
		for name, value := range env.EvalResults {
			fields = append(fields, name, value)
		}
		logger.Debug("Boosting iteration", fields...)
		return nil
	}
}

// EarlyStoppingCallback stops training when metric has not improved for rounds
// consecutive iterations. A nil logger uses the component logger.
func EarlyStoppingCallback(rounds int, metric string, minimize bool, logger log.Logger) Callback {
	if logger == nil {
		logger = log.GetLoggerWithName("lightgbm.callbacks")
	}
	bestScore := math.Inf(1)
	if !minimize {
		bestScore = math.Inf(-1)
	}
	bestIteration := 0
	roundsNoImprove := 0

	return func(env *CallbackEnv) error {
		value, exists := env.EvalResults[metric]
		if !exists {
			return nil
		}
		improved := value > bestScore
		if minimize {
			improved = value < bestScore
		}
		if improved {
			bestScore = value
			bestIteration = env.Iteration
			roundsNoImprove = 0
			return nil
		}
		roundsNoImprove++
		if roundsNoImprove >= rounds {
			logger.Info("Early stopping",
				log.IterationKey, env.Iteration,
				"best_iteration", bestIteration,
				metric, bestScore,
			)
			env.StopTraining = true
		}
		return nil
	}
}

// TimeLimit stops training once maxDuration has elapsed since the first iteration.
func TimeLimit(maxDuration time.Duration) Callback {
	var start time.Time
	return func(env *CallbackEnv) error {
		if start.IsZero() {
			start = env.BeginTime
		}
		if env.EndTime.Sub(start) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}

// CallbackList runs callbacks in registration order.
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a list over callbacks.
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       &CallbackEnv{},
	}
}

// BeforeIteration records the start of an iteration.
func (cl *CallbackList) BeforeIteration(iteration int, model *Model) {
	cl.env.Iteration = iteration
	cl.env.Model = model
	cl.env.BeginTime = time.Now()
	cl.env.EvalResults = nil
}

// AfterIteration runs every callback with the iteration's evaluation results.
func (cl *CallbackList) AfterIteration(iteration int, model *Model, evalResults map[string]float64) error {
	cl.env.Iteration = iteration
	cl.env.Model = model
	cl.env.EndTime = time.Now()
	cl.env.EvalResults = evalResults

	for _, cb := range cl.callbacks {
		if err := cb(cl.env); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop reports whether a callback asked training to stop.
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}
