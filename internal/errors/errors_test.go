package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("permission denied")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{
			name:     "config error with cause",
			err:      NewConfigError("invalid storage driver", cause),
			wantType: ErrTypeConfig,
			wantMsg:  "[CONFIG] invalid storage driver: permission denied",
		},
		{
			name:     "parsing error",
			err:      NewParsingError("ragged row 4", nil),
			wantType: ErrTypeParsing,
			wantMsg:  "[PARSING] ragged row 4",
		},
		{
			name:     "storage error",
			err:      NewStorageError("query failed", cause),
			wantType: ErrTypeStorage,
			wantMsg:  "[STORAGE] query failed: permission denied",
		},
		{
			name:     "validation error",
			err:      NewAppValidationError("width must be positive"),
			wantType: ErrTypeValidation,
			wantMsg:  "[VALIDATION] width must be positive",
		},
		{
			name:     "not found error",
			err:      NewNotFoundError("source poverty"),
			wantType: ErrTypeNotFound,
			wantMsg:  "[NOT_FOUND] source poverty not found",
		},
		{
			name:     "export error",
			err:      NewExportError("write failed", cause),
			wantType: ErrTypeExport,
			wantMsg:  "[EXPORT] write failed: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrapAndContext(t *testing.T) {
	cause := fmt.Errorf("open data.csv: %w", errors.New("no such file"))
	err := NewStorageError("load failed", cause).WithContext("source", "elections")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "elections", err.Context["source"])

	var appErr *AppError
	wrapped := fmt.Errorf("service: %w", err)
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)

	bare := &AppError{Type: ErrTypeInternal}
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])
}

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(errors.New("bad year")), http.StatusBadRequest, "INVALID_REQUEST"},
		{"field validation", ErrValidation("year", "must be 2017 or 2021"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", NotFoundError("map"), http.StatusNotFound, "NOT_FOUND"},
		{"export", ExportError("poverty", errors.New("disk full")), http.StatusInternalServerError, "EXPORT_FAILED"},
		{"simple validation", NewValidationError("bad"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"simple internal", NewInternalError("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"predefined source", ErrSourceNotFound, http.StatusNotFound, "SOURCE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "year", Message: "required"},
		{Field: "round", Message: "oneof"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, NotFoundError("source unemployment"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["error_code"])
	assert.Equal(t, "source unemployment not found", errBody["message"])
}

func TestProblemDetailsMarshal(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeSourceNotFound, "Source Not Found", "unknown source: foo", "/api/sources/foo").
		WithExtension("trace_id", "req-1")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeSourceNotFound, body["type"])
	assert.Equal(t, "Source Not Found", body["title"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "unknown source: foo", body["detail"])
	assert.Equal(t, "/api/sources/foo", body["instance"])
	assert.Equal(t, "req-1", body["trace_id"])
}

func TestProblemDetailsStandardMembersWin(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}
