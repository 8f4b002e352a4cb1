package artifact

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"job-agent/internal/domain/artifact"
	"job-agent/internal/gateway"
	"job-agent/internal/gateway/gatewaytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = log.New(io.Discard, "", 0)

func TestOrchestrator_KindsRunIndependently(t *testing.T) {
	releaseCover := make(chan struct{})
	coverEntered := make(chan struct{})
	gw := &gatewaytest.Fake{
		GenerateCoverLetterFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			close(coverEntered)
			<-releaseCover
			return artifact.GenerationResult{Status: artifact.ResultSuccess, Content: "Dear team"}, nil
		},
		GenerateResumeFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			return artifact.GenerationResult{Status: artifact.ResultSuccess, Content: "Resume body"}, nil
		},
	}
	o := NewRegistry(gw, nil, quiet).Open(7, 42)

	require.NoError(t, o.Start(artifact.KindCoverLetter))
	<-coverEntered

	st, err := o.Generate(context.Background(), artifact.KindResume)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusReady, st.Status)
	assert.Equal(t, "Resume body", st.Content)
	assert.Equal(t, artifact.StatusPending, o.State(artifact.KindCoverLetter).Status)

	close(releaseCover)
	o.Wait()
	cover := o.State(artifact.KindCoverLetter)
	assert.Equal(t, artifact.StatusReady, cover.Status)
	assert.Equal(t, "Dear team", cover.Content)
}

func TestOrchestrator_SecondRequestWhilePendingMakesNoCall(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	gw := &gatewaytest.Fake{
		GenerateCoverLetterFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			close(entered)
			<-release
			return artifact.GenerationResult{Status: artifact.ResultSuccess, Content: "x"}, nil
		},
	}
	o := NewRegistry(gw, nil, quiet).Open(7, 42)

	require.NoError(t, o.Start(artifact.KindCoverLetter))
	<-entered

	st, err := o.Generate(context.Background(), artifact.KindCoverLetter)
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, artifact.StatusPending, st.Status)
	assert.ErrorIs(t, o.Start(artifact.KindCoverLetter), ErrPending)

	close(release)
	o.Wait()
	assert.Equal(t, 1, gw.Calls("GenerateCoverLetter"))
}

func TestOrchestrator_InterviewPrepEmptyListIsReady(t *testing.T) {
	gw := &gatewaytest.Fake{
		GenerateInterviewPrepFunc: func(context.Context, int64, int64) (artifact.InterviewPrepResult, error) {
			return artifact.InterviewPrepResult{
				Status: artifact.ResultSuccess,
				Questions: &artifact.InterviewPrep{
					TechnicalQuestions:  []string{"Q1"},
					BehavioralQuestions: []string{},
					Tips:                []string{"T1"},
				},
			}, nil
		},
	}
	o := NewRegistry(gw, nil, quiet).Open(7, 42)

	st, err := o.Generate(context.Background(), artifact.KindInterviewPrep)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusReady, st.Status)
	require.NotNil(t, st.Prep)
	assert.Equal(t, []string{"Q1"}, st.Prep.TechnicalQuestions)
	assert.NotNil(t, st.Prep.BehavioralQuestions)
	assert.Empty(t, st.Prep.BehavioralQuestions)
	assert.Equal(t, []string{"T1"}, st.Prep.Tips)
}

func TestOrchestrator_FailureMessages(t *testing.T) {
	gw := &gatewaytest.Fake{
		GenerateCoverLetterFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			return artifact.GenerationResult{}, gateway.NewBusinessError("generate cover letter", "User not found")
		},
		GenerateResumeFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			return artifact.GenerationResult{}, &gateway.Error{Kind: gateway.KindTransport, Cause: errors.New("timeout")}
		},
	}
	o := NewRegistry(gw, nil, quiet).Open(7, 42)

	st, err := o.Generate(context.Background(), artifact.KindCoverLetter)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusFailed, st.Status)
	assert.Equal(t, "User not found", st.Message)

	st, err = o.Generate(context.Background(), artifact.KindResume)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusFailed, st.Status)
	assert.Equal(t, "Failed to generate tailored resume. Please try again.", st.Message)
}

func TestOrchestrator_RetryAfterFailure(t *testing.T) {
	attempts := 0
	gw := &gatewaytest.Fake{
		GenerateResumeFunc: func(context.Context, int64, int64) (artifact.GenerationResult, error) {
			attempts++
			if attempts == 1 {
				return artifact.GenerationResult{}, gateway.NewBusinessError("generate resume", "quota")
			}
			return artifact.GenerationResult{Status: artifact.ResultSuccess, Content: "ok"}, nil
		},
	}
	o := NewRegistry(gw, nil, quiet).Open(7, 42)

	st, _ := o.Generate(context.Background(), artifact.KindResume)
	require.Equal(t, artifact.StatusFailed, st.Status)
	st, err := o.Generate(context.Background(), artifact.KindResume)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusReady, st.Status)
}

func TestRegistry_CloseDropsStateAndCancels(t *testing.T) {
	entered := make(chan struct{})
	gw := &gatewaytest.Fake{
		GenerateCoverLetterFunc: func(ctx context.Context, _, _ int64) (artifact.GenerationResult, error) {
			close(entered)
			<-ctx.Done()
			return artifact.GenerationResult{}, &gateway.Error{Kind: gateway.KindTransport, Cause: ctx.Err()}
		},
	}
	r := NewRegistry(gw, nil, quiet)
	o := r.Open(7, 42)
	require.NoError(t, o.Start(artifact.KindCoverLetter))
	<-entered

	r.Close(42)
	o.Wait()

	_, ok := r.Get(42)
	assert.False(t, ok)
	assert.Equal(t, artifact.StatusAbsent, o.State(artifact.KindCoverLetter).Status)
	assert.ErrorIs(t, o.Start(artifact.KindResume), ErrClosed)

	fresh := r.Open(7, 42)
	assert.NotSame(t, o, fresh)
	for _, st := range fresh.States() {
		assert.Equal(t, artifact.StatusAbsent, st.Status)
	}
}

func TestRegistry_OpenReusesPerUser(t *testing.T) {
	r := NewRegistry(&gatewaytest.Fake{}, nil, quiet)
	a := r.Open(1, 42)
	assert.Same(t, a, r.Open(1, 42))

	b := r.Open(2, 42)
	assert.NotSame(t, a, b)
	assert.ErrorIs(t, a.Start(artifact.KindResume), ErrClosed)

	r.Reset()
	_, ok := r.Get(42)
	assert.False(t, ok)
}

type fakePDF struct{ html string }

func (f *fakePDF) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4"), nil
}

func TestExporter(t *testing.T) {
	pdf := &fakePDF{}
	e := NewExporter(pdf)
	ctx := context.Background()

	_, err := e.Export(ctx, artifact.State{Kind: artifact.KindResume, Status: artifact.StatusPending}, 1, "", FormatText)
	assert.ErrorIs(t, err, ErrNotReady)

	prep := artifact.InterviewPrep{TechnicalQuestions: []string{"Q1"}, Tips: []string{"T1"}}.Normalize()
	st := artifact.State{Kind: artifact.KindInterviewPrep, Status: artifact.StatusReady, Prep: &prep}

	doc, err := e.Export(ctx, st, 42, "DevOps Engineer", FormatText)
	require.NoError(t, err)
	assert.Equal(t, "interview-prep-job-42.txt", doc.Filename)
	assert.Contains(t, string(doc.Body), "Technical Questions\n1. Q1\n")
	assert.Contains(t, string(doc.Body), "Behavioral Questions\n  (none)\n")

	doc, err = e.Export(ctx, artifact.State{Kind: artifact.KindCoverLetter, Status: artifact.StatusReady, Content: "Dear <team>"}, 42, "DevOps Engineer", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, strings.Contains(pdf.html, "Dear &lt;team&gt;"))
	assert.Contains(t, pdf.html, "Cover letter")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
