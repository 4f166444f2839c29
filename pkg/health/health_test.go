package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCheck(status Status, message string) Check {
	return func(context.Context) ComponentHealth {
		return ComponentHealth{Status: status, Message: message}
	}
}

func TestRunAggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all up", []Status{StatusUp, StatusUp}, StatusUp},
		{"one degraded", []Status{StatusUp, StatusDegraded}, StatusDegraded},
		{"one down", []Status{StatusUp, StatusDegraded, StatusDown}, StatusDown},
		{"no checks", nil, StatusUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker()
			for i, st := range tt.statuses {
				checker.Register(string(rune('a'+i)), staticCheck(st, ""))
			}
			report := checker.Run(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, len(tt.statuses))
			assert.False(t, report.CheckedAt.IsZero())
		})
	}
}

func TestReadyHandlerDegradedStaysReady(t *testing.T) {
	checker := NewChecker()
	checker.Register("index", staticCheck(StatusUp, ""))
	checker.Register("redis", staticCheck(StatusDegraded, "not configured"))

	rec := httptest.NewRecorder()
	checker.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "not configured", report.Components["redis"].Message)
}

func TestReadyHandlerDown(t *testing.T) {
	checker := NewChecker()
	checker.Register("index", staticCheck(StatusDown, "no snapshot yet"))

	rec := httptest.NewRecorder()
	checker.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
