package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/pkg/errors"
)

func noop(context.Context, json.RawMessage) (Response, error) {
	return Response{Success: true}, nil
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		ops     []Operation
		wantErr bool
	}{
		{
			name: "valid",
			ops: []Operation{
				{Name: "a", Handler: noop},
				{Name: "b", Handler: noop, Parameters: json.RawMessage(`{"type":"object","properties":{"x":{"type":"number"}}}`)},
			},
		},
		{name: "duplicate", ops: []Operation{{Name: "a", Handler: noop}, {Name: "a", Handler: noop}}, wantErr: true},
		{name: "empty name", ops: []Operation{{Name: "", Handler: noop}}, wantErr: true},
		{name: "padded name", ops: []Operation{{Name: " a", Handler: noop}}, wantErr: true},
		{name: "missing handler", ops: []Operation{{Name: "a"}}, wantErr: true},
		{name: "malformed schema", ops: []Operation{{Name: "a", Handler: noop, Parameters: json.RawMessage(`{"type":`)}}, wantErr: true},
		{name: "unknown type", ops: []Operation{{Name: "a", Handler: noop, Parameters: json.RawMessage(`{"type":"objekt"}`)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.ops...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CodeInvalidArgument, errors.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, r.Names())
			_, ok := r.Lookup("b")
			assert.True(t, ok)
		})
	}
}

func TestOperationValidate(t *testing.T) {
	r, err := NewRegistry(Operation{
		Name:       "op",
		Handler:    noop,
		Parameters: json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer","minimum":1}},"additionalProperties":false}`),
	})
	require.NoError(t, err)
	op, _ := r.Lookup("op")

	for _, args := range []string{``, `null`, `{}`, `{"n": 3}`} {
		_, err := op.validate(json.RawMessage(args))
		assert.NoError(t, err, args)
	}

	_, err = op.validate(json.RawMessage(`{"n": 0}`))
	require.Error(t, err)
	var argErr *errors.InvalidArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "n", argErr.Param)
}

func TestProbabilityMarshal(t *testing.T) {
	tests := []struct {
		p    Probability
		want string
	}{
		{p: 0, want: "0.0000"},
		{p: 1, want: "1.0000"},
		{p: 0.123456, want: "0.1235"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(Prediction{Probability: tt.p})
		require.NoError(t, err)
		assert.JSONEq(t, `{"value":false,"probability":`+tt.want+`}`, string(b))
		assert.Contains(t, string(b), tt.want)
	}
}
