package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/loanml/gateway"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

func TestObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveCall(gateway.Event{Operation: "predict", Registered: true, Success: true, Duration: 5 * time.Millisecond})
	m.ObserveCall(gateway.Event{Operation: "predict", Registered: true, Success: false, Code: errors.CodeModelNotTrained})
	m.ObserveCall(gateway.Event{Operation: "predict", Registered: true, Success: false})
	m.ObserveCall(gateway.Event{Operation: "drop_tables", Success: false, Code: errors.CodeInvalidArgument})
	m.ObserveCall(gateway.Event{Operation: "rm_rf", Success: false, Code: errors.CodeInvalidArgument})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("predict", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("predict", "model_not_trained")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("predict", "internal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues(OperationUnregistered, "invalid_argument")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.callDuration))
}

func TestObserveTraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelTrained))

	m.ObserveTraining(lifecycle.TrainEvent{Err: errors.NewTrainingFailureError("single class", nil), Duration: time.Second})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelTrained))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainings.WithLabelValues("training_failure")))

	m.ObserveTraining(lifecycle.TrainEvent{Duration: 2 * time.Second})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelTrained))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trainings.WithLabelValues(OutcomeSuccess)))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveCall(gateway.Event{Operation: "get_sample", Registered: true, Success: true})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `loanml_gateway_calls_total{operation="get_sample",outcome="success"} 1`), body)
}
