package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockStatusRecorder はHTTPStatusRecorderのモック。
type mockStatusRecorder struct {
	recorded []int
}

func (m *mockStatusRecorder) RecordHTTPStatus(statusCode int) {
	m.recorded = append(m.recorded, statusCode)
}

func TestMetricsMiddleware_RecordsStatusCode(t *testing.T) {
	recorder := &mockStatusRecorder{}

	handler := NewMetricsMiddleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(recorder.recorded) != 1 {
		t.Fatalf("recorded count = %d, want 1", len(recorder.recorded))
	}
	if recorder.recorded[0] != http.StatusNotFound {
		t.Errorf("recorded status = %d, want %d", recorder.recorded[0], http.StatusNotFound)
	}
}

func TestMetricsMiddleware_DefaultsTo200WhenNoWriteHeader(t *testing.T) {
	recorder := &mockStatusRecorder{}

	handler := NewMetricsMiddleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(recorder.recorded) != 1 {
		t.Fatalf("recorded count = %d, want 1", len(recorder.recorded))
	}
	if recorder.recorded[0] != http.StatusOK {
		t.Errorf("recorded status = %d, want %d", recorder.recorded[0], http.StatusOK)
	}
}
