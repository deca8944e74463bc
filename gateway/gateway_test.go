package gateway

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/dataset"
	"github.com/YuminosukeSato/loanml/internal/fixtures"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
	"github.com/YuminosukeSato/loanml/sample"
	"github.com/YuminosukeSato/loanml/schema"
)

const createAllFeatures = `{
	"numericalFeatures": ["CreditScore", "AnnualIncome", "LoanAmount", "LoanDuration", "Age"],
	"categoricalFeatures": ["EmploymentStatus", "MaritalStatus", "EducationLevel", "HomeOwnershipStatus"],
	"targetLabel": "LoanApproved"
}`

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	repo, err := dataset.NewRepository(dataset.New(fixtures.Separable(100, 21)), 0.2, 42)
	require.NoError(t, err)
	g, err := New(lifecycle.New(), sample.NewDefaultState(), repo, opts...)
	require.NoError(t, err)
	return g
}

func invoke(t *testing.T, g *Gateway, name, args string) Response {
	t.Helper()
	return g.Invoke(context.Background(), name, json.RawMessage(args))
}

func TestPredictBeforeCreateModel(t *testing.T) {
	g := newTestGateway(t)

	resp := invoke(t, g, OpPredict, `{}`)
	assert.False(t, resp.Success)
	assert.True(t, resp.Terminate)
	assert.Equal(t, MessageNoModel, resp.Message)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeModelNotTrained, resp.Error.Code)
	assert.Contains(t, resp.Error.Suggestion, OpCreateModel)

	for _, op := range []string{OpEvaluateModel, OpFeatureImportance} {
		resp := invoke(t, g, op, `{}`)
		assert.False(t, resp.Success, op)
		assert.True(t, resp.Terminate, op)
	}
}

func TestCreateModelThenPredict(t *testing.T) {
	g := newTestGateway(t)

	resp := invoke(t, g, OpCreateModel, createAllFeatures)
	require.True(t, resp.Success, resp.Text())
	assert.True(t, resp.Terminate)
	assert.Equal(t, MessageModelCreated, resp.Message)

	resp = invoke(t, g, OpUpdateSample, `{"creditScore": 750}`)
	require.True(t, resp.Success, resp.Text())
	assert.Equal(t, []string{schema.CreditScore}, resp.Changed)
	assert.Equal(t, RationalePlaceholder, resp.Rationale)

	resp = invoke(t, g, OpPredict, ``)
	require.True(t, resp.Success, resp.Text())
	require.NotNil(t, resp.Prediction)
	require.NotNil(t, resp.Context)
	score, err := resp.Context.Sample.Numeric(schema.CreditScore)
	require.NoError(t, err)
	assert.Equal(t, 750.0, score)
	assert.True(t, resp.Prediction.Value)
	assert.Empty(t, resp.Context.Overrides)
	assert.Equal(t, RationalePlaceholder, resp.Rationale)
	assert.Contains(t, resp.Instruction, RationalePlaceholder)

	t.Run("overrides apply to one call only", func(t *testing.T) {
		resp := invoke(t, g, OpPredict, `{"creditScore": 500}`)
		require.True(t, resp.Success, resp.Text())
		assert.False(t, resp.Prediction.Value)
		assert.Equal(t, map[string]any{schema.CreditScore: 500.0}, resp.Context.Overrides)

		current := invoke(t, g, OpGetSample, `{}`)
		require.NotNil(t, current.Sample)
		score, _ := current.Sample.Numeric(schema.CreditScore)
		assert.Equal(t, 750.0, score)
	})

	t.Run("probability has four decimals", func(t *testing.T) {
		resp := invoke(t, g, OpPredict, `{}`)
		assert.Regexp(t, regexp.MustCompile(`"probability":[01]\.\d{4}[,}]`), string(resp.JSON()))
		assert.Regexp(t, regexp.MustCompile(`probability [01]\.\d{4}$`), resp.Text())
	})

	t.Run("evaluate", func(t *testing.T) {
		resp := invoke(t, g, OpEvaluateModel, ``)
		require.True(t, resp.Success, resp.Text())
		require.NotNil(t, resp.Evaluation)
		assert.GreaterOrEqual(t, resp.Evaluation.Accuracy, 0.95)
		assert.Equal(t, 20, resp.Evaluation.Samples)
	})

	t.Run("feature importance", func(t *testing.T) {
		resp := invoke(t, g, OpFeatureImportance, `{"top": 3, "kind": "gain"}`)
		require.True(t, resp.Success, resp.Text())
		require.Len(t, resp.Importance, 3)
		assert.Equal(t, schema.CreditScore, resp.Importance[0].Feature)
	})
}

func TestCreateModelFailures(t *testing.T) {
	tests := []struct {
		name string
		args string
		code string
	}{
		{name: "unknown feature", args: `{"numericalFeatures": ["ShoeSize"], "categoricalFeatures": [], "targetLabel": "LoanApproved"}`, code: errors.CodeInvalidArgument},
		{name: "wrong kind", args: `{"numericalFeatures": ["LoanPurpose"], "categoricalFeatures": [], "targetLabel": "LoanApproved"}`, code: errors.CodeInvalidArgument},
		{name: "wrong target", args: `{"numericalFeatures": ["Age"], "categoricalFeatures": [], "targetLabel": "Age"}`, code: errors.CodeInvalidArgument},
		{name: "missing target", args: `{"numericalFeatures": ["Age"], "categoricalFeatures": []}`, code: errors.CodeInvalidArgument},
		{name: "bad hyperparameter", args: `{"numericalFeatures": ["Age"], "categoricalFeatures": [], "targetLabel": "LoanApproved", "hyperparameters": {"numberOfLeaves": 1}}`, code: errors.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t)
			resp := invoke(t, g, OpCreateModel, tt.args)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, lifecycle.Untrained, g.engine.State())
		})
	}

	t.Run("no dataset", func(t *testing.T) {
		g, err := New(lifecycle.New(), sample.NewDefaultState(), nil)
		require.NoError(t, err)
		resp := invoke(t, g, OpCreateModel, createAllFeatures)
		assert.False(t, resp.Success)
		assert.Equal(t, errors.CodeTrainingFailure, resp.Error.Code)
	})
}

func TestInvokeRejectsBadArguments(t *testing.T) {
	g := newTestGateway(t)
	before := g.state.Current()

	tests := []struct {
		name string
		op   string
		args string
	}{
		{name: "string for number", op: OpUpdateSample, args: `{"creditScore": "abc"}`},
		{name: "unknown parameter", op: OpUpdateSample, args: `{"shoeSize": 42}`},
		{name: "enum outside set", op: OpUpdateSample, args: `{"employmentStatus": "Freelancer"}`},
		{name: "malformed json", op: OpUpdateSample, args: `{"creditScore": `},
		{name: "predict with bad enum", op: OpPredict, args: `{"maritalStatus": "single"}`},
		{name: "importance kind", op: OpFeatureImportance, args: `{"kind": "shap"}`},
		{name: "unknown operation", op: "delete_everything", args: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := invoke(t, g, tt.op, tt.args)
			assert.False(t, resp.Success)
			assert.False(t, resp.Terminate)
			require.NotNil(t, resp.Error)
			assert.Equal(t, errors.CodeInvalidArgument, resp.Error.Code)
		})
	}
	assert.Equal(t, before, g.state.Current())
}

func TestUpdateSampleIdempotent(t *testing.T) {
	g := newTestGateway(t)

	first := invoke(t, g, OpUpdateSample, `{"loanAmount": 50000, "educationLevel": "Master"}`)
	second := invoke(t, g, OpUpdateSample, `{"loanAmount": 50000, "educationLevel": "Master"}`)
	require.True(t, first.Success)
	require.True(t, second.Success)

	assert.Equal(t, *first.Sample, *second.Sample)
	assert.Equal(t, first.Updates, second.Updates)
	assert.Equal(t, []string{schema.LoanAmount, schema.EducationLevelField}, first.Changed)
	assert.Empty(t, second.Changed)
}

func TestInvokeRecoversPanics(t *testing.T) {
	g := newTestGateway(t)
	registry, err := NewRegistry(Operation{
		Name:    "explode",
		Handler: func(context.Context, json.RawMessage) (Response, error) { panic("boom") },
	})
	require.NoError(t, err)
	g.registry = registry

	var resp Response
	require.NotPanics(t, func() { resp = invoke(t, g, "explode", `{}`) })
	assert.False(t, resp.Success)
	assert.Equal(t, errors.CodeInternal, resp.Error.Code)
}

func TestObservers(t *testing.T) {
	logger := log.NewTestLogger(log.LevelDebug)
	var events []Event
	g := newTestGateway(t,
		WithObserver(func(ev Event) { events = append(events, ev) }),
		WithObserver(LogObserver(logger)),
	)

	invoke(t, g, OpGetSample, `{}`)
	invoke(t, g, OpPredict, `{}`)
	invoke(t, g, "launch_rocket", `{}`)

	require.Len(t, events, 3)
	assert.Equal(t, OpGetSample, events[0].Operation)
	assert.True(t, events[0].Registered)
	assert.True(t, events[0].Success)
	assert.Empty(t, events[0].Code)
	assert.NotEmpty(t, events[0].CallID)
	assert.NotEqual(t, events[0].CallID, events[1].CallID)
	assert.False(t, events[1].Success)
	assert.Equal(t, errors.CodeModelNotTrained, events[1].Code)
	assert.False(t, events[2].Registered)
	assert.Equal(t, errors.CodeInvalidArgument, events[2].Code)

	assert.True(t, logger.ContainsMessage("Operation completed"))
	assert.True(t, logger.ContainsMessage("Operation failed"))
	assert.True(t, logger.ContainsField(log.ToolKey, OpPredict))
}

func TestDefinitions(t *testing.T) {
	g := newTestGateway(t)

	defs := g.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
		assert.NotEmpty(t, d.Description)
		assert.True(t, json.Valid(d.Parameters), d.Name)
	}
	assert.Equal(t, []string{OpUpdateSample, OpPredict, OpCreateModel, OpEvaluateModel, OpFeatureImportance, OpGetSample}, names)

	var params map[string]any
	require.NoError(t, json.Unmarshal(defs[0].Parameters, &params))
	props := params["properties"].(map[string]any)
	assert.Contains(t, props, "creditScore")
	assert.Contains(t, props, "employmentStatus")
}

func TestCreateModelUsesConfiguredDefaults(t *testing.T) {
	hp := lifecycle.Hyperparameters{NumberOfLeaves: 4, NumberOfIterations: 7, MinExamplesPerLeaf: 5, LearningRate: 0.3}
	g := newTestGateway(t, WithDefaultHyperparameters(hp))

	resp := invoke(t, g, OpCreateModel, createAllFeatures)
	require.True(t, resp.Success, resp.Text())
	assert.Equal(t, hp, g.engine.Artifact().Hyperparameters)

	bad := newTestGateway(t, WithDefaultHyperparameters(lifecycle.Hyperparameters{LearningRate: -1}))
	resp = invoke(t, bad, OpCreateModel, createAllFeatures)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodeInvalidArgument, resp.Error.Code)
}

func TestCreateModelMergesPartialHyperparameters(t *testing.T) {
	defaults := lifecycle.Hyperparameters{NumberOfLeaves: 4, NumberOfIterations: 3, MinExamplesPerLeaf: 5, LearningRate: 0.3}
	g := newTestGateway(t, WithDefaultHyperparameters(defaults))

	args := `{
		"numericalFeatures": ["CreditScore"],
		"targetLabel": "LoanApproved",
		"hyperparameters": {"learningRate": 0.05}
	}`
	resp := invoke(t, g, OpCreateModel, args)
	require.True(t, resp.Success, resp.Text())

	want := defaults
	want.LearningRate = 0.05
	assert.Equal(t, want, g.engine.Artifact().Hyperparameters)
}

func TestNullSampleFieldsAreLeftUnchanged(t *testing.T) {
	g := newTestGateway(t)
	before := g.state.Current()

	resp := invoke(t, g, OpUpdateSample, `{"creditScore": 750, "age": null, "annualIncome": null, "employmentStatus": null}`)
	require.True(t, resp.Success, resp.Text())
	assert.Equal(t, []string{schema.CreditScore}, resp.Changed)
	require.NotNil(t, resp.Updates)
	assert.Equal(t, FieldValues{schema.CreditScore: 750.0}, *resp.Updates)

	after := g.state.Current()
	for _, field := range []string{schema.Age, schema.AnnualIncome} {
		want, err := before.Numeric(field)
		require.NoError(t, err)
		got, err := after.Numeric(field)
		require.NoError(t, err)
		assert.Equal(t, want, got, field)
	}
	assert.Equal(t, before.EmploymentStatus(), after.EmploymentStatus())

	resp = invoke(t, g, OpCreateModel, createAllFeatures)
	require.True(t, resp.Success, resp.Text())
	resp = invoke(t, g, OpPredict, `{"creditScore": null, "maritalStatus": null}`)
	require.True(t, resp.Success, resp.Text())
	require.NotNil(t, resp.Context)
	assert.Empty(t, resp.Context.Overrides)
	score, err := resp.Context.Sample.Numeric(schema.CreditScore)
	require.NoError(t, err)
	assert.Equal(t, 750.0, score)
}

func TestEmptyUpdateStillReportsUpdates(t *testing.T) {
	g := newTestGateway(t)

	resp := invoke(t, g, OpUpdateSample, `{}`)
	require.True(t, resp.Success, resp.Text())

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.JSON(), &body))
	assert.JSONEq(t, `{}`, string(body["updates"]))
	assert.Contains(t, body, "sample")
	assert.Contains(t, body, "rationale")
}
