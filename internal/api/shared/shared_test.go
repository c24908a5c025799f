package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

func TestTraceIDRoundTrip(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
}

func TestPrincipalID(t *testing.T) {
	_, ok := PrincipalID(context.Background())
	assert.False(t, ok)

	id, ok := PrincipalID(WithPrincipalID(context.Background(), 7))
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = PrincipalID(WithPrincipalID(context.Background(), 0))
	assert.False(t, ok)
}

type chatBody struct {
	Message string `json:"message" validate:"required,max=10"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"message":"hi"}`, ""},
		{"empty body", ``, "body"},
		{"broken json", `{"message":`, "body"},
		{"unknown field", `{"message":"hi","x":1}`, "body"},
		{"missing required", `{}`, "message"},
		{"too long", `{"message":"this is far too long"}`, "message"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var v chatBody
			err := DecodeJSON(r, &v)
			if err == nil {
				err = ValidateRequest(v)
			}
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.wantField, ve.Field)
			assert.Equal(t, classify.InvalidInput, classify.Classify(err))
		})
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   classify.Kind
		wantDetail bool
	}{
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized, classify.Unauthorized, true},
		{"not found", store.ErrConversationNotFound, http.StatusNotFound, classify.NotFound, true},
		{"storage", store.NewStoreError("task", "list", "failed", errors.New("conn refused")), http.StatusServiceUnavailable, classify.StorageError, true},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, classify.Unknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, logs := logger.NewTestLogger(t)
			r := httptest.NewRequest(http.MethodGet, "/api/7/conversations", nil)
			ctx := SetTraceID(logger.WithLogger(r.Context(), l))
			rec := httptest.NewRecorder()

			RespondWithError(rec, r.WithContext(ctx), tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, StatusError, body.Status)
			assert.Equal(t, tc.wantKind, body.Kind)
			assert.Equal(t, GetTraceID(ctx), body.TraceID)
			assert.Equal(t, tc.wantDetail, body.Detail != "")
			assert.NotContains(t, rec.Body.String(), "kaboom")
			assert.Contains(t, logs.String(), "API error response")
		})
	}
}
