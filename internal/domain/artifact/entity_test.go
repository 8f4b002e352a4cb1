package artifact_test

import (
	"testing"

	"job-agent/internal/domain/artifact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range artifact.Kinds {
		got, err := artifact.ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := artifact.ParseKind("portfolio")
	assert.Error(t, err)
}

func TestCanStart(t *testing.T) {
	assert.True(t, artifact.CanStart(artifact.StatusAbsent))
	assert.True(t, artifact.CanStart(artifact.StatusReady))
	assert.True(t, artifact.CanStart(artifact.StatusFailed))
	assert.False(t, artifact.CanStart(artifact.StatusPending))
}

func TestInterviewPrepNormalize(t *testing.T) {
	p := artifact.InterviewPrep{TechnicalQuestions: []string{"Q1"}, Tips: []string{"T1"}}.Normalize()

	assert.Equal(t, []string{"Q1"}, p.TechnicalQuestions)
	assert.NotNil(t, p.BehavioralQuestions)
	assert.Empty(t, p.BehavioralQuestions)
	assert.Equal(t, []string{"T1"}, p.Tips)
}
