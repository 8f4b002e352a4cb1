package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"job-agent/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard, "", 0)

type fakeTokens struct {
	token   string
	cleared atomic.Int32
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Clear(context.Context) {
	f.cleared.Add(1)
	f.token = ""
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, tokens, quiet, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SearchJobsSendsQueryAndToken(t *testing.T) {
	var gotAuth, gotQuery, gotReqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotReqID = r.Header.Get("X-Request-ID")
		assert.Equal(t, "/jobs/search", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "title": "DevOps Engineer", "company": "Acme", "matchScore": 85, "salary_min": nil},
			{"id": 2, "title": "Cloud Architect", "company": "Globex", "matchScore": 55},
		})
	}, &fakeTokens{token: "tok-123"})

	jobs, err := c.SearchJobs(context.Background(), " devops ", "Remote", 7)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "DevOps Engineer", jobs[0].Title)
	assert.Equal(t, float64(85), jobs[0].MatchScore)
	assert.Nil(t, jobs[0].SalaryMin)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "location=Remote&query=devops&user_id=7", gotQuery)
	assert.NotEmpty(t, gotReqID)
}

func TestClient_UnauthorizedClearsSessionAndFiresHook(t *testing.T) {
	tokens := &fakeTokens{token: "stale"}
	var hooked atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid session token"})
	}, tokens, WithUnauthorizedHook(func(context.Context) { hooked.Add(1) }))

	_, err := c.RecommendedJobs(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), tokens.cleared.Load())
	assert.Equal(t, int32(1), hooked.Load())
	assert.Empty(t, tokens.Token())
}

func TestClient_NonSuccessIsBusinessWithBackendDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Saved job not found"})
	}, nil)

	err := c.UnsaveJob(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusiness)
	assert.Equal(t, "Saved job not found", UserMessage(err))

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
}

func TestClient_ShapeMismatchIsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"jobs": []any{}})
	}, nil)

	_, err := c.RecommendedJobs(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, msgValidation, UserMessage(err))
}

func TestClient_UnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil, quiet)
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, msgTransport, UserMessage(err))
}

func TestClient_TimeoutIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 50*time.Millisecond, nil, quiet)
	start := time.Now()
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrBusiness)
	assert.Equal(t, msgTransport, UserMessage(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_GenerationFailureIsBusiness(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "error": "Job not found"})
	}, nil)

	_, err := c.GenerateCoverLetter(context.Background(), 1, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusiness)
	assert.Equal(t, "Job not found", UserMessage(err))
}

func TestClient_InterviewPrepNormalisesMissingLists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"questions": map[string]any{
				"technical_questions":  []string{"Q1"},
				"behavioral_questions": []string{},
				"tips":                 []string{"T1"},
			},
		})
	}, nil)

	res, err := c.GenerateInterviewPrep(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Questions)
	assert.Equal(t, []string{"Q1"}, res.Questions.TechnicalQuestions)
	assert.NotNil(t, res.Questions.BehavioralQuestions)
	assert.Empty(t, res.Questions.BehavioralQuestions)
	assert.Equal(t, []string{"T1"}, res.Questions.Tips)
}

func TestClient_LoginAndUpdateUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var cred user.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
			assert.Equal(t, "dana@example.com", cred.Email)
			writeJSON(w, http.StatusOK, map[string]any{
				"user":          map[string]any{"id": 7, "email": cred.Email, "phone": nil},
				"session_token": "abc",
			})
		case "/users/7":
			assert.Equal(t, http.MethodPut, r.Method)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Dana", body["full_name"])
			_, hasPhone := body["phone"]
			assert.False(t, hasPhone)
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "email": "dana@example.com", "full_name": "Dana"})
		default:
			http.NotFound(w, r)
		}
	}, nil)

	res, err := c.Login(context.Background(), user.Credentials{Email: " dana@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)
	assert.Equal(t, int64(7), res.User.ID)

	name := "Dana"
	u, err := c.UpdateUser(context.Background(), 7, user.Update{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Dana", u.FullName)
}

func TestClient_SaveJobReturnsSavedID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/saved-jobs", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Job saved successfully", "saved_id": 31})
	}, nil)

	rec, err := c.SaveJob(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(31), rec.SavedID)
}

func TestUserMessage_UnknownError(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, msgUnknown, UserMessage(errors.New("boom")))
}
