package admissions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-sis-api/pkg/config"
)

func TestNotifySemesterAssignment(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(config.AdmissionsConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second})
	require.NoError(t, client.NotifySemesterAssignment(context.Background(), "APP-9", "sem-7"))
	assert.Equal(t, "/applicants/APP-9/semester", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "sem-7", gotBody["semester_id"])
}

func TestNotifySemesterAssignmentStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(config.AdmissionsConfig{BaseURL: srv.URL}).NotifySemesterAssignment(context.Background(), "APP-9", "sem-7")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestNotifySemesterAssignmentNotConfigured(t *testing.T) {
	err := NewClient(config.AdmissionsConfig{}).NotifySemesterAssignment(context.Background(), "APP-9", "sem-7")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
