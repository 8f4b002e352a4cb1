// Package gateway is the single point of contact with the job-search backend.
// Every call attaches the session token, validates the response shape before
// decoding, and classifies failures into the four error kinds in errors.go.
// Nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"job-agent/internal/domain/artifact"
	"job-agent/internal/domain/job"
	"job-agent/internal/domain/user"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

type Client interface {
	Health(ctx context.Context) (map[string]any, error)
	Login(ctx context.Context, cred user.Credentials) (LoginResult, error)
	GetUser(ctx context.Context, userID int64) (user.User, error)
	UpdateUser(ctx context.Context, userID int64, upd user.Update) (user.User, error)

	RecommendedJobs(ctx context.Context, userID int64) ([]job.Job, error)
	SearchJobs(ctx context.Context, query string, location string, userID int64) ([]job.Job, error)
	ImportJobs(ctx context.Context, query string, userID int64) (job.ImportSummary, error)

	ListApplications(ctx context.Context, userID int64) ([]job.Application, error)
	CreateApplication(ctx context.Context, userID int64, jobID int64) (job.ApplicationReceipt, error)
	ListSavedJobs(ctx context.Context, userID int64) ([]job.SavedJob, error)
	SaveJob(ctx context.Context, userID int64, jobID int64) (job.SaveReceipt, error)
	UnsaveJob(ctx context.Context, savedID int64) error

	GenerateCoverLetter(ctx context.Context, userID int64, jobID int64) (artifact.GenerationResult, error)
	GenerateResume(ctx context.Context, userID int64, jobID int64) (artifact.GenerationResult, error)
	GenerateInterviewPrep(ctx context.Context, userID int64, jobID int64) (artifact.InterviewPrepResult, error)

	SubmitFeedback(ctx context.Context, fb user.Feedback) error
}

// TokenSource supplies the bearer token and drops the session when the backend
// rejects it.
type TokenSource interface {
	Token() string
	Clear(ctx context.Context)
}

type LoginResult struct {
	User    user.User `json:"user"`
	Token   string    `json:"session_token"`
	Message string    `json:"message,omitempty"`
}

type Option func(*httpClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithUnauthorizedHook registers fn to run after a 401 has cleared the session.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *httpClient) { c.onUnauthorized = fn }
}

type httpClient struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	logger  *log.Logger

	onUnauthorized func(ctx context.Context)
}

type userJobRequest struct {
	UserID int64 `json:"user_id"`
	JobID  int64 `json:"job_id"`
}

type importRequest struct {
	Query  string `json:"query"`
	UserID int64  `json:"user_id"`
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *log.Logger, opts ...Option) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	c := &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, schemaObject, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) Login(ctx context.Context, cred user.Credentials) (LoginResult, error) {
	cred.Email = strings.TrimSpace(cred.Email)
	cred.FullName = strings.TrimSpace(cred.FullName)
	var out LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, cred, schemaLogin, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (c *httpClient) GetUser(ctx context.Context, userID int64) (user.User, error) {
	var out user.User
	p := fmt.Sprintf("/users/%d", userID)
	if err := c.do(ctx, "get user", http.MethodGet, p, nil, nil, schemaUser, &out); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (c *httpClient) UpdateUser(ctx context.Context, userID int64, upd user.Update) (user.User, error) {
	var out user.User
	p := fmt.Sprintf("/users/%d", userID)
	if err := c.do(ctx, "update user", http.MethodPut, p, nil, upd, schemaUser, &out); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (c *httpClient) RecommendedJobs(ctx context.Context, userID int64) ([]job.Job, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	var out []job.Job
	if err := c.do(ctx, "recommended jobs", http.MethodGet, "/jobs/recommended", q, nil, schemaJobs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) SearchJobs(ctx context.Context, query string, location string, userID int64) ([]job.Job, error) {
	q := url.Values{}
	if v := strings.TrimSpace(query); v != "" {
		q.Set("query", v)
	}
	if v := strings.TrimSpace(location); v != "" {
		q.Set("location", v)
	}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	var out []job.Job
	if err := c.do(ctx, "search jobs", http.MethodGet, "/jobs/search", q, nil, schemaJobs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) ImportJobs(ctx context.Context, query string, userID int64) (job.ImportSummary, error) {
	body := importRequest{Query: strings.TrimSpace(query), UserID: userID}
	var out job.ImportSummary
	if err := c.do(ctx, "import jobs", http.MethodPost, "/jobs/import", nil, body, schemaImportSummary, &out); err != nil {
		return job.ImportSummary{}, err
	}
	return out, nil
}

func (c *httpClient) ListApplications(ctx context.Context, userID int64) ([]job.Application, error) {
	var out []job.Application
	p := fmt.Sprintf("/users/%d/applications", userID)
	if err := c.do(ctx, "list applications", http.MethodGet, p, nil, nil, schemaApplications, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) CreateApplication(ctx context.Context, userID int64, jobID int64) (job.ApplicationReceipt, error) {
	var out job.ApplicationReceipt
	body := userJobRequest{UserID: userID, JobID: jobID}
	if err := c.do(ctx, "create application", http.MethodPost, "/applications", nil, body, schemaApplicationReceipt, &out); err != nil {
		return job.ApplicationReceipt{}, err
	}
	return out, nil
}

func (c *httpClient) ListSavedJobs(ctx context.Context, userID int64) ([]job.SavedJob, error) {
	var out []job.SavedJob
	p := fmt.Sprintf("/users/%d/saved-jobs", userID)
	if err := c.do(ctx, "list saved jobs", http.MethodGet, p, nil, nil, schemaSavedJobs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) SaveJob(ctx context.Context, userID int64, jobID int64) (job.SaveReceipt, error) {
	var out job.SaveReceipt
	body := userJobRequest{UserID: userID, JobID: jobID}
	if err := c.do(ctx, "save job", http.MethodPost, "/saved-jobs", nil, body, schemaSaveReceipt, &out); err != nil {
		return job.SaveReceipt{}, err
	}
	return out, nil
}

func (c *httpClient) UnsaveJob(ctx context.Context, savedID int64) error {
	p := fmt.Sprintf("/saved-jobs/%d", savedID)
	return c.do(ctx, "unsave job", http.MethodDelete, p, nil, nil, schemaObject, nil)
}

func (c *httpClient) GenerateCoverLetter(ctx context.Context, userID int64, jobID int64) (artifact.GenerationResult, error) {
	return c.generate(ctx, "generate cover letter", "/ai/generate/cover-letter", userID, jobID)
}

func (c *httpClient) GenerateResume(ctx context.Context, userID int64, jobID int64) (artifact.GenerationResult, error) {
	return c.generate(ctx, "generate resume", "/ai/generate/resume", userID, jobID)
}

func (c *httpClient) generate(ctx context.Context, op string, path string, userID int64, jobID int64) (artifact.GenerationResult, error) {
	var out artifact.GenerationResult
	body := userJobRequest{UserID: userID, JobID: jobID}
	if err := c.do(ctx, op, http.MethodPost, path, nil, body, schemaGeneration, &out); err != nil {
		return artifact.GenerationResult{}, err
	}
	if out.Status != artifact.ResultSuccess {
		return artifact.GenerationResult{}, NewBusinessError(op, generationMessage(out.Error))
	}
	return out, nil
}

func (c *httpClient) GenerateInterviewPrep(ctx context.Context, userID int64, jobID int64) (artifact.InterviewPrepResult, error) {
	const op = "generate interview prep"
	var out artifact.InterviewPrepResult
	body := userJobRequest{UserID: userID, JobID: jobID}
	if err := c.do(ctx, op, http.MethodPost, "/ai/generate/interview-prep", nil, body, schemaInterviewPrep, &out); err != nil {
		return artifact.InterviewPrepResult{}, err
	}
	if out.Status != artifact.ResultSuccess {
		return artifact.InterviewPrepResult{}, NewBusinessError(op, generationMessage(out.Error))
	}
	prep := artifact.InterviewPrep{}
	if out.Questions != nil {
		prep = *out.Questions
	}
	prep = prep.Normalize()
	out.Questions = &prep
	return out, nil
}

func (c *httpClient) SubmitFeedback(ctx context.Context, fb user.Feedback) error {
	if strings.TrimSpace(fb.Category) == "" {
		fb.Category = user.FeedbackSuggestion
	}
	return c.do(ctx, "submit feedback", http.MethodPost, "/feedback", nil, fb, schemaObject, nil)
}

func generationMessage(backendErr string) string {
	if msg := strings.TrimSpace(backendErr); msg != "" {
		return msg
	}
	return "Generation failed"
}

// do performs one request. out may be nil when only the status matters; the body
// is still validated against schema.
func (c *httpClient) do(ctx context.Context, op string, method string, path string, query url.Values, in any, schema string, out any) error {
	if c == nil || c.client == nil {
		return &Error{Kind: KindTransport, Op: op, Cause: errors.New("nil http client")}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Cause: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Cause: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("[Gateway] %s transport error method=%s path=%s request_id=%s: %v", op, method, path, requestID, err)
		return &Error{Kind: KindTransport, Op: op, Cause: err}
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Printf("[Gateway] %s read error method=%s path=%s request_id=%s: %v", op, method, path, requestID, err)
		return &Error{Kind: KindTransport, Op: op, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Printf("[Gateway] %s unauthorized method=%s path=%s request_id=%s, clearing session", op, method, path, requestID)
		if c.tokens != nil {
			c.tokens.Clear(ctx)
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return &Error{Kind: KindAuth, Op: op, StatusCode: resp.StatusCode, Message: backendDetail(rb)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := backendDetail(rb)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Printf("[Gateway] %s error method=%s path=%s status=%d request_id=%s body=%q", op, method, path, resp.StatusCode, requestID, snippet(rb))
		return &Error{Kind: KindBusiness, Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if len(bytes.TrimSpace(rb)) == 0 {
		if out == nil {
			return nil
		}
		return &Error{Kind: KindValidation, Op: op, StatusCode: resp.StatusCode, Cause: errors.New("empty response body")}
	}

	if err := validate(schema, rb); err != nil {
		c.logger.Printf("[Gateway] %s invalid response path=%s request_id=%s: %v", op, path, requestID, err)
		return &Error{Kind: KindValidation, Op: op, StatusCode: resp.StatusCode, Cause: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rb, out); err != nil {
		return &Error{Kind: KindValidation, Op: op, StatusCode: resp.StatusCode, Cause: err}
	}
	return nil
}

// backendDetail extracts the human message from an error body. The backend uses
// {"detail": "..."}; {"error"} and {"message"} are accepted too.
func backendDetail(b []byte) string {
	var env struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return ""
	}
	if s, ok := env.Detail.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if s := strings.TrimSpace(env.Error); s != "" {
		return s
	}
	return strings.TrimSpace(env.Message)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		return s[:512]
	}
	return s
}

var _ Client = (*httpClient)(nil)
