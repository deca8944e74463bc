// Standard attribute keys used by the engine's log records.
//
// Keys follow a hierarchical naming convention ("model.artifact_id", "data.samples")
// so that log analysis can filter by prefix.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or pipeline stage emitting the record.
	// Examples: "GBDTBinaryClassifier", "MinMaxScaler", "OneHotEncoder"
	ModelNameKey = "model.name"

	// ArtifactIDKey identifies one trained artifact (a UUID).
	ArtifactIDKey = "model.artifact_id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey indicates the number of records in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the width of the feature vector.
	FeaturesKey = "data.features"

	// PositivesKey indicates how many records carry a positive label.
	PositivesKey = "data.positives"

	// PathKey records the dataset file path.
	PathKey = "data.path"
)

// Performance and training metrics.
const (
	DurationMsKey  = "perf.duration_ms"
	AccuracyKey    = "metrics.accuracy"
	AUCKey         = "metrics.auc"
	LossKey        = "metrics.loss"
	IterationKey   = "training.iteration"
	TreesKey       = "training.trees"
	LeavesKey      = "training.leaves"
	ProbabilityKey = "preds.probability"
	ApprovedKey    = "preds.approved"
)

// Gateway context.
const (
	// CallIDKey correlates the records of one gateway invocation.
	CallIDKey = "call.id"

	// ToolKey names the invoked operation.
	ToolKey = "call.tool"

	// SuccessKey reports whether the invocation succeeded.
	SuccessKey = "call.success"
)

// Error context.
const (
	// ErrorCodeKey provides the stable error code, see pkg/errors.Code.
	ErrorCodeKey = "error.code"

	// ErrorDetailKey holds the structured form of a taxonomy error.
	ErrorDetailKey = "error.detail"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Configuration.
const (
	HyperParamsKey  = "model.hyperparams"
	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationLoad      = "load"
	OperationSplit     = "split"
	OperationFit       = "fit"
	OperationTransform = "transform"
	OperationTrain     = "train"
	OperationPredict   = "predict"
	OperationEvaluate  = "evaluate"
	OperationUpdate    = "update_sample"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseValidation    = "validation"
	PhasePreprocessing = "preprocessing"
)
