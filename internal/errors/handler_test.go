package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmopulse/internal/dataprocessing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func handleAndDecode(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	h := NewErrorHandler(discardLogger(), false)
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleError_SchemaViolation(t *testing.T) {
	schemaErr := &dataprocessing.SchemaError{Missing: []string{"ID", "Project Manager"}}

	status, body := handleAndDecode(t, fmt.Errorf("load register: %w", schemaErr))

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, TypeDatasetSchema, body["type"])
	assert.Equal(t, []interface{}{"ID", "Project Manager"}, body["missing_columns"])
}

func TestHandleError_APIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantType   string
	}{
		{name: "dataset not loaded", err: ErrDatasetNotFound, wantStatus: http.StatusNotFound, wantType: TypeDatasetNotLoaded},
		{name: "validation", err: ErrValidation("limit", "must be between 0 and 50"), wantStatus: http.StatusBadRequest, wantType: TypeValidation},
		{name: "upload too large", err: ErrUploadTooLarge, wantStatus: http.StatusRequestEntityTooLarge, wantType: TypePayloadTooLarge},
		{name: "export failed", err: ErrExportFailed, wantStatus: http.StatusInternalServerError, wantType: TypeExportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handleAndDecode(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.err.ErrorCode, body["error_code"])
		})
	}
}

func TestHandleError_ContextCancelled(t *testing.T) {
	status, body := handleAndDecode(t, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, TypeTimeout, body["type"])
}

func TestHandleError_UnknownError(t *testing.T) {
	status, body := handleAndDecode(t, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, TypeInternal, body["type"])
}

func TestHandlePanic(t *testing.T) {
	h := NewErrorHandler(discardLogger(), false)
	r := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandlePanic(w, r, "unexpected state")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeInternal, body["type"])
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "missing", "/api/x").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc-123", body["trace_id"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
}
