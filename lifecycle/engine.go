// Package lifecycle owns the trained model: it fits a feature pipeline and a
// boosted-tree classifier on the training split, swaps the result in atomically and
// serves predictions from whichever artifact is current.
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/loanml/dataset"
	"github.com/YuminosukeSato/loanml/lightgbm"
	"github.com/YuminosukeSato/loanml/metrics"
	"github.com/YuminosukeSato/loanml/pipeline"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/schema"
)

// State is the lifecycle state of an Engine.
type State int

const (
	// Untrained means no artifact has been produced yet.
	Untrained State = iota
	// Trained means predictions are served from the current artifact.
	Trained
)

func (s State) String() string {
	if s == Trained {
		return "trained"
	}
	return "untrained"
}

// TrainEvent describes one finished Train call, successful or not.
type TrainEvent struct {
	ArtifactID uuid.UUID
	Samples    int
	Duration   time.Duration
	Err        error
}

// TrainObserver is notified after every Train call.
type TrainObserver func(TrainEvent)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the component logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTrainObserver registers an observer for Train calls.
func WithTrainObserver(obs TrainObserver) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs) }
}

// CallbackFactory builds a boosting callback for a single training run.
type CallbackFactory func() lightgbm.Callback

// WithTrainerCallbacks adds boosting callbacks to every training run. Each factory
// is called once per Train, so stateful callbacks such as early stopping and time
// limits start clean on every retrain.
func WithTrainerCallbacks(factories ...CallbackFactory) Option {
	return func(e *Engine) { e.callbacks = append(e.callbacks, factories...) }
}

// Engine is the Untrained/Trained state machine. Predictions read the current
// artifact without locking; Train calls are serialized.
type Engine struct {
	current   atomic.Pointer[Artifact]
	trainMu   sync.Mutex
	logger    log.Logger
	observers []TrainObserver
	callbacks []CallbackFactory
	now       func() time.Time
}

// New creates an untrained Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: log.GetLoggerWithName("lifecycle"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports whether an artifact is loaded.
func (e *Engine) State() State {
	if e.current.Load() == nil {
		return Untrained
	}
	return Trained
}

// Artifact returns the current artifact, or nil when untrained.
func (e *Engine) Artifact() *Artifact {
	return e.current.Load()
}

// Train fits spec on train and a classifier on the resulting vectors against
// targetLabel, then makes the new artifact current. Every call fits from scratch. On
// any failure the previous artifact, if any, stays current.
func (e *Engine) Train(ctx context.Context, train *dataset.Dataset, spec *pipeline.Spec, targetLabel string, hp Hyperparameters) (*Artifact, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	start := e.now()
	var art *Artifact
	err := errors.SafeExecute("lifecycle.Train", func() error {
		var fitErr error
		art, fitErr = e.fit(ctx, train, spec, targetLabel, hp)
		return fitErr
	})
	var panicErr *errors.PanicError
	if errors.As(err, &panicErr) {
		err = errors.NewTrainingFailureError("trainer panicked", err)
	}

	event := TrainEvent{Samples: train.Len(), Duration: e.now().Sub(start), Err: err}
	if err == nil {
		e.current.Store(art)
		event.ArtifactID = art.ID
		e.logger.Info("Model trained",
			log.ArtifactIDKey, art.ID.String(),
			log.SamplesKey, art.TrainingSamples,
			log.FeaturesKey, art.pipeline.Width(),
			log.TreesKey, art.Trees,
			log.LossKey, art.FinalLoss(),
			log.DurationMsKey, event.Duration.Milliseconds(),
		)
	} else {
		e.logger.Error("Training failed", err,
			log.ErrorCodeKey, errors.Code(err),
			log.SamplesKey, train.Len(),
			log.PhaseKey, log.PhaseTraining,
		)
	}
	for _, obs := range e.observers {
		obs(event)
	}
	if err != nil {
		return nil, err
	}
	return art, nil
}

func (e *Engine) fit(ctx context.Context, train *dataset.Dataset, spec *pipeline.Spec, targetLabel string, hp Hyperparameters) (*Artifact, error) {
	if spec == nil {
		return nil, errors.NewInvalidArgumentError("pipeline", "a pipeline spec is required", nil)
	}
	label, ok := schema.Lookup(strings.TrimSpace(targetLabel))
	if !ok || label.Kind != schema.KindLabel {
		return nil, errors.NewInvalidArgumentError("targetLabel", "must be "+schema.LabelField().Name, targetLabel)
	}
	hp = hp.WithDefaults()
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if train.Len() == 0 {
		return nil, errors.NewTrainingFailureError("training split is empty", errors.ErrEmptyData)
	}

	records := train.Records()
	fitted, err := spec.Fit(ctx, records)
	if err != nil {
		return nil, err
	}
	X, err := fitted.TransformAll(records)
	if err != nil {
		return nil, err
	}

	var history map[string][]float64
	callbacks := []lightgbm.Callback{lightgbm.RecordEvaluation(&history)}
	for _, factory := range e.callbacks {
		callbacks = append(callbacks, factory())
	}
	trainer := lightgbm.NewTrainer(hp.trainingParams()).
		WithCallbacks(callbacks...).
		WithLogger(e.logger.With(log.ModelNameKey, "GBDTBinaryClassifier"))
	m, err := trainer.Fit(ctx, X, train.Labels())
	if err != nil {
		if errors.Code(err) == errors.CodeTrainingFailure {
			return nil, err
		}
		return nil, errors.NewTrainingFailureError("classifier refused to fit", err)
	}
	if m.NumFeatures() != fitted.Width() {
		return nil, errors.NewDimensionError("lifecycle.Train", fitted.Width(), m.NumFeatures())
	}

	return &Artifact{
		ID:              uuid.New(),
		TargetLabel:     label.Name,
		Hyperparameters: hp,
		TrainedAt:       e.now(),
		TrainingSamples: train.Len(),
		Trees:           len(m.Trees),
		TrainingLoss:    history[lightgbm.MetricTrainingLogloss],
		pipeline:        fitted,
		classifier:      m,
	}, nil
}

// Predict scores rec with the current artifact.
func (e *Engine) Predict(rec schema.LoanRecord) (PredictionResult, error) {
	exp, err := e.Explain(rec)
	if err != nil {
		return PredictionResult{}, err
	}
	return exp.PredictionResult, nil
}

// Explanation is a prediction together with the artifact and inputs behind it.
type Explanation struct {
	PredictionResult
	ArtifactID       string
	UnseenCategories []string
}

// Explain scores rec like Predict and reports which artifact answered and which
// categorical values of rec were absent from its vocabularies.
func (e *Engine) Explain(rec schema.LoanRecord) (Explanation, error) {
	art := e.current.Load()
	if art == nil {
		return Explanation{}, errors.NewModelNotTrainedError("predict")
	}
	res, err := art.Predict(rec)
	if err != nil {
		return Explanation{}, err
	}
	if e.logger.Enabled(context.Background(), log.LevelDebug) {
		e.logger.Debug("Prediction served",
			log.ArtifactIDKey, art.ID.String(),
			log.ApprovedKey, res.Label,
			log.ProbabilityKey, res.Probability,
		)
	}
	return Explanation{
		PredictionResult: res,
		ArtifactID:       art.ID.String(),
		UnseenCategories: art.pipeline.UnseenCategories(rec),
	}, nil
}

// Evaluation is a metrics report for the artifact it was computed with.
type Evaluation struct {
	ArtifactID string `json:"artifactId"`
	metrics.Report
}

// Evaluate scores every record of ds with the current artifact.
func (e *Engine) Evaluate(ds *dataset.Dataset) (Evaluation, error) {
	art := e.current.Load()
	if art == nil {
		return Evaluation{}, errors.NewModelNotTrainedError("evaluate_model")
	}
	if ds.Len() == 0 {
		return Evaluation{}, errors.NewInvalidArgumentError("dataset", "no records to evaluate", 0)
	}

	proba, err := art.PredictProbaBatch(ds.Records())
	if err != nil {
		return Evaluation{}, err
	}
	report, err := metrics.Evaluate(mat.NewVecDense(ds.Len(), ds.Labels()), proba, metrics.DefaultThreshold)
	if err != nil {
		return Evaluation{}, err
	}

	e.logger.Info("Model evaluated",
		log.ArtifactIDKey, art.ID.String(),
		log.OperationKey, log.OperationEvaluate,
		log.PhaseKey, log.PhaseValidation,
		log.SamplesKey, report.Samples,
		log.AccuracyKey, report.Accuracy,
		log.AUCKey, report.AUC,
	)
	return Evaluation{ArtifactID: art.ID.String(), Report: report}, nil
}

// FeatureImportance returns the current artifact's importances, highest first.
func (e *Engine) FeatureImportance(kind string) ([]FeatureImportance, error) {
	art := e.current.Load()
	if art == nil {
		return nil, errors.NewModelNotTrainedError("feature_importance")
	}
	switch kind {
	case "":
		kind = lightgbm.ImportanceGain
	case lightgbm.ImportanceGain, lightgbm.ImportanceSplit:
	default:
		return nil, errors.NewInvalidArgumentError("kind", "must be split or gain", kind)
	}
	return art.FeatureImportance(kind), nil
}
