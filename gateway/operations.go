package gateway

import (
	"context"
	"encoding/json"

	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/lightgbm"
	"github.com/YuminosukeSato/loanml/pipeline"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/sample"
	"github.com/YuminosukeSato/loanml/schema"
)

// Operation names.
const (
	OpUpdateSample      = "update_sample"
	OpPredict           = "predict"
	OpCreateModel       = "create_model"
	OpEvaluateModel     = "evaluate_model"
	OpFeatureImportance = "feature_importance"
	OpGetSample         = "get_sample"
)

// PredictInstruction tells the agent how to fill the rationale slot.
const PredictInstruction = "Replace " + RationalePlaceholder + " with a short explanation of the prediction " +
	"based only on context.sample and context.overrides. Do not restate or alter prediction.value or " +
	"prediction.probability."

func (g *Gateway) operations() []Operation {
	return []Operation{
		{
			Name:        OpUpdateSample,
			Description: "Update fields of the current applicant sample. Omitted fields keep their value.",
			Parameters:  sampleFieldsSchema(),
			Handler:     g.updateSample,
		},
		{
			Name: OpPredict,
			Description: "Predict loan approval for the current sample. Provided fields override the sample " +
				"for this prediction only.",
			Parameters: sampleFieldsSchema(),
			Handler:    g.predict,
		},
		{
			Name:        OpCreateModel,
			Description: "Train a new model on the training split with the given features and target label.",
			Parameters:  createModelSchema(),
			Handler:     g.createModel,
		},
		{
			Name:        OpEvaluateModel,
			Description: "Evaluate the current model on the held-out test split.",
			Handler:     g.evaluateModel,
		},
		{
			Name:        OpFeatureImportance,
			Description: "List the features the current model relies on most.",
			Parameters:  featureImportanceSchema(),
			Handler:     g.featureImportance,
		},
		{
			Name:        OpGetSample,
			Description: "Return the current applicant sample.",
			Handler:     g.getSample,
		},
	}
}

func decode(args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return errors.NewInvalidArgumentError("arguments", err.Error(), string(args))
	}
	return nil
}

func (g *Gateway) updateSample(_ context.Context, args json.RawMessage) (Response, error) {
	var u sample.Update
	if err := decode(args, &u); err != nil {
		return Response{}, err
	}
	snap, err := g.state.Update(u)
	if err != nil {
		return Response{}, err
	}
	updates := FieldValues(snap.Updates)
	return Response{
		Success:   true,
		Sample:    &snap.Sample,
		Updates:   &updates,
		Changed:   snap.Changed,
		Rationale: RationalePlaceholder,
	}, nil
}

func (g *Gateway) predict(_ context.Context, args json.RawMessage) (Response, error) {
	var u sample.Update
	if err := decode(args, &u); err != nil {
		return Response{}, err
	}
	rec, err := g.state.Overlay(u)
	if err != nil {
		return Response{}, err
	}
	exp, err := g.engine.Explain(rec)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: true,
		Prediction: &Prediction{
			Value:       exp.Label,
			Probability: Probability(exp.Probability),
		},
		Context: &PredictionContext{
			ArtifactID:       exp.ArtifactID,
			Sample:           rec,
			Overrides:        u.Values(),
			UnseenCategories: exp.UnseenCategories,
		},
		Rationale:   RationalePlaceholder,
		Instruction: PredictInstruction,
	}, nil
}

type createModelArgs struct {
	NumericalFeatures   []string                   `json:"numericalFeatures"`
	CategoricalFeatures []string                   `json:"categoricalFeatures"`
	TargetLabel         string                     `json:"targetLabel"`
	Hyperparameters     *lifecycle.Hyperparameters `json:"hyperparameters,omitempty"`
}

func (g *Gateway) createModel(ctx context.Context, args json.RawMessage) (Response, error) {
	var a createModelArgs
	if err := decode(args, &a); err != nil {
		return Response{}, err
	}
	if g.data == nil {
		return Response{}, errors.NewTrainingFailureError("no dataset loaded", errors.ErrEmptyData)
	}
	spec, err := pipeline.Build(a.NumericalFeatures, a.CategoricalFeatures)
	if err != nil {
		return Response{}, err
	}
	hp := g.defaults
	if a.Hyperparameters != nil {
		hp = hp.Override(*a.Hyperparameters)
	}
	if _, err := g.engine.Train(ctx, g.data.Train(), spec, a.TargetLabel, hp); err != nil {
		return Response{}, err
	}
	return Response{Success: true, Message: MessageModelCreated, Terminate: true}, nil
}

func (g *Gateway) evaluateModel(_ context.Context, _ json.RawMessage) (Response, error) {
	if g.engine.State() == lifecycle.Untrained {
		return Response{}, errors.NewModelNotTrainedError(OpEvaluateModel)
	}
	if g.data == nil {
		return Response{}, errors.NewInvalidArgumentError("dataset", "no dataset loaded", nil)
	}
	ev, err := g.engine.Evaluate(g.data.Test())
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Evaluation: &ev}, nil
}

type featureImportanceArgs struct {
	Top  int    `json:"top"`
	Kind string `json:"kind"`
}

func (g *Gateway) featureImportance(_ context.Context, args json.RawMessage) (Response, error) {
	var a featureImportanceArgs
	if err := decode(args, &a); err != nil {
		return Response{}, err
	}
	importance, err := g.engine.FeatureImportance(a.Kind)
	if err != nil {
		return Response{}, err
	}
	top := a.Top
	if top == 0 {
		top = 10
	}
	if top < len(importance) {
		importance = importance[:top]
	}
	return Response{Success: true, Importance: importance}, nil
}

func (g *Gateway) getSample(_ context.Context, _ json.RawMessage) (Response, error) {
	rec := g.state.Current()
	return Response{Success: true, Sample: &rec}, nil
}

// ===========================================================================
//
//	Parameter schemas
//
// ===========================================================================

func mustSchema(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func enumValues(field string) []string {
	f, ok := schema.Lookup(field)
	if !ok {
		panic("gateway: unknown schema field " + field)
	}
	return f.Values
}

func sampleFieldsSchema() json.RawMessage {
	// null is accepted and means "leave unchanged", like an omitted field.
	number := func(desc string) map[string]any {
		return map[string]any{"type": []string{"number", "null"}, "description": desc}
	}
	enum := func(field, desc string) map[string]any {
		values := []any{nil}
		for _, v := range enumValues(field) {
			values = append(values, v)
		}
		return map[string]any{"type": []string{"string", "null"}, "enum": values, "description": desc}
	}
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"creditScore":      number("Credit score of the applicant."),
			"annualIncome":     number("Annual income of the applicant."),
			"loanAmount":       number("Requested loan amount."),
			"loanDuration":     number("Loan duration."),
			"age":              number("Age of the applicant."),
			"employmentStatus": enum(schema.EmploymentStatusField, "Employment status."),
			"maritalStatus":    enum(schema.MaritalStatusField, "Marital status."),
			"educationLevel":   enum(schema.EducationLevelField, "Highest education level."),
		},
		"additionalProperties": false,
	})
}

func createModelSchema() json.RawMessage {
	names := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"numericalFeatures":   names,
			"categoricalFeatures": names,
			"targetLabel":         map[string]any{"type": "string", "minLength": 1},
			"hyperparameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"numberOfLeaves":     map[string]any{"type": "integer", "minimum": 2},
					"numberOfIterations": map[string]any{"type": "integer", "minimum": 1},
					"minExamplesPerLeaf": map[string]any{"type": "integer", "minimum": 1},
					"learningRate":       map[string]any{"type": "number"},
				},
				"additionalProperties": false,
			},
		},
		"required":             []string{"numericalFeatures", "categoricalFeatures", "targetLabel"},
		"additionalProperties": false,
	})
}

func featureImportanceSchema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"top":  map[string]any{"type": "integer", "minimum": 1},
			"kind": map[string]any{"type": "string", "enum": []string{lightgbm.ImportanceSplit, lightgbm.ImportanceGain}},
		},
		"additionalProperties": false,
	})
}
