package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/schema"
)

// RationalePlaceholder marks the slot the calling agent fills with its own summary.
const RationalePlaceholder = "{.. summary ..}"

// Messages returned with terminate set.
const (
	MessageNoModel      = "No model loaded. Try instructing the LLM to create a model first."
	MessageModelCreated = "Model created and trained successfully."
)

// Probability renders with exactly four decimals.
type Probability float64

// MarshalJSON writes p as a number with four decimals.
func (p Probability) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Probability) String() string {
	return strconv.FormatFloat(float64(p), 'f', 4, 64)
}

// Prediction is the structured prediction result.
type Prediction struct {
	Value       bool        `json:"value"`
	Probability Probability `json:"probability"`
}

// PredictionContext is the data the agent's rationale should be based on.
type PredictionContext struct {
	ArtifactID       string            `json:"artifactId"`
	Sample           schema.LoanRecord `json:"sample"`
	Overrides        map[string]any    `json:"overrides"`
	UnseenCategories []string          `json:"unseenCategories,omitempty"`
}

// ErrorDetail is the machine-readable part of a failure.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// FieldValues maps schema field names to the values a call provided.
type FieldValues map[string]any

// Response is the payload of every invocation. Fields irrelevant to an operation are
// omitted from the JSON form.
type Response struct {
	Success     bool                          `json:"success"`
	Message     string                        `json:"message,omitempty"`
	Terminate   bool                          `json:"terminate,omitempty"`
	Sample      *schema.LoanRecord            `json:"sample,omitempty"`
	Updates     *FieldValues                  `json:"updates,omitempty"`
	Changed     []string                      `json:"changed,omitempty"`
	Prediction  *Prediction                   `json:"prediction,omitempty"`
	Context     *PredictionContext            `json:"context,omitempty"`
	Evaluation  *lifecycle.Evaluation         `json:"evaluation,omitempty"`
	Importance  []lifecycle.FeatureImportance `json:"importance,omitempty"`
	Rationale   string                        `json:"rationale,omitempty"`
	Instruction string                        `json:"instruction,omitempty"`
	Error       *ErrorDetail                  `json:"error,omitempty"`
}

// JSON encodes r. Encoding cannot fail for the types a Response holds.
func (r Response) JSON() []byte {
	b, err := json.Marshal(r)
	if err != nil {
		return []byte(`{"success":false,"error":{"code":"INTERNAL","message":"response encoding failed"}}`)
	}
	return b
}

// Text renders r as short plain text for consoles and transcripts.
func (r Response) Text() string {
	var b strings.Builder
	if r.Success {
		b.WriteString("success")
	} else {
		b.WriteString("failure")
	}
	if r.Message != "" {
		fmt.Fprintf(&b, ": %s", r.Message)
	}
	if r.Error != nil {
		fmt.Fprintf(&b, " [%s] %s", r.Error.Code, r.Error.Message)
		if r.Error.Suggestion != "" {
			fmt.Fprintf(&b, " (%s)", r.Error.Suggestion)
		}
	}
	if r.Prediction != nil {
		verdict := "rejected"
		if r.Prediction.Value {
			verdict = "approved"
		}
		fmt.Fprintf(&b, "\nprediction: %s, probability %s", verdict, r.Prediction.Probability)
	}
	if r.Updates != nil && len(*r.Updates) > 0 {
		updates := *r.Updates
		keys := make([]string, 0, len(updates))
		for k := range updates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, updates[k])
		}
		fmt.Fprintf(&b, "\nupdates: %s", strings.Join(parts, ", "))
	}
	if r.Changed != nil {
		fmt.Fprintf(&b, "\nchanged: %s", strings.Join(r.Changed, ", "))
	}
	if r.Evaluation != nil {
		fmt.Fprintf(&b, "\naccuracy %.4f, precision %.4f, recall %.4f, f1 %.4f, auc %.4f",
			r.Evaluation.Accuracy, r.Evaluation.Precision, r.Evaluation.Recall, r.Evaluation.F1, r.Evaluation.AUC)
	}
	for _, fi := range r.Importance {
		fmt.Fprintf(&b, "\n%s: %.4f", fi.Feature, fi.Importance)
	}
	if r.Terminate {
		b.WriteString("\nterminate")
	}
	return b.String()
}
