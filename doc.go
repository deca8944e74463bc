// Package loanml is a loan-approval model lifecycle engine for Go,
// designed to sit behind a language-model agent that drives it through
// named tool calls.
//
// loanml loads a labeled applicant dataset, builds a feature pipeline from
// caller-selected columns, trains a gradient boosted decision tree binary
// classifier, and answers predictions for a mutable "current applicant"
// sample.
//
// # Features
//
//   - Typed record schema: 40 numeric and 10 categorical applicant columns
//   - Feature pipeline: one-hot encoding, concatenation and min-max scaling
//   - Leaf-wise histogram GBDT with binary log loss
//   - Immutable trained artifacts swapped atomically on retrain
//   - JSON-schema validated operation gateway with structured errors
//
// # Quick Start
//
//	repo, err := dataset.Open("loan_approvals.csv", dataset.DefaultOptions(), 0.2, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := lifecycle.New()
//	gw, err := gateway.New(engine, sample.NewDefaultState(), repo)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp := gw.Invoke(ctx, gateway.OpCreateModel, json.RawMessage(`{
//	    "numericalFeatures": ["CreditScore", "AnnualIncome"],
//	    "categoricalFeatures": ["EmploymentStatus"],
//	    "targetLabel": "LoanApproved"
//	}`))
//	fmt.Println(resp.Text())
//
//	resp = gw.Invoke(ctx, gateway.OpPredict, json.RawMessage(`{"creditScore": 720}`))
//	fmt.Println(resp.Text())
//
// # Packages
//
//   - schema: field table, enums and LoanRecord
//   - dataset: delimited loader, seeded train/test split
//   - preprocessing: OneHotEncoder, Concatenator, MinMaxScaler
//   - pipeline: feature pipeline builder and fitted pipeline
//   - lightgbm: histogram gradient boosting trainer and model
//   - metrics: accuracy, precision, recall, F1, ROC AUC, log loss
//   - lifecycle: untrained/trained state machine and artifacts
//   - sample: the current applicant and its merge updates
//   - gateway: operation registry, validation and responses
//   - report: feature importance charts
//   - core/model: fit-state bookkeeping and shared interfaces
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// The cmd/loanagent command exposes the gateway over JSON lines.
package loanml
