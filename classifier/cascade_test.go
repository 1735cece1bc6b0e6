package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"jobscout/config"
	"jobscout/mocks"
	"jobscout/models"
	"jobscout/ratelimit"
)

func newTestCascade(t *testing.T, reasoner *mocks.MockReasoner) *Cascade {
	t.Helper()
	cfg := config.GetDefaultConfig()
	stages, err := StagesFromConfig(cfg.Stages)
	require.NoError(t, err)
	c, err := NewCascade(reasoner, ratelimit.New(0, nil), stages, cfg.Rubric, nil)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 8, 18, 0, 0, 0, 0, time.UTC) }
	return c
}

// expectStage registers the two calls of one stage in order
func expectStage(r *mocks.MockReasoner, explanation, verdict string) []*gomock.Call {
	return []*gomock.Call{
		r.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(explanation, nil),
		r.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(verdict, nil),
	}
}

func TestCascadeAllStagesPassBookmarks(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)

	var calls []*gomock.Call
	calls = append(calls, expectStage(r, "Eligible, no sponsorship restriction", "Yes")...)
	calls = append(calls, expectStage(r, "Yes, job_type: Backend Engineer", "Yes")...)
	calls = append(calls, expectStage(r, "Skills match Python/SQL", "yes")...)
	gomock.InOrder(calls...)

	content := models.JobContent{ID: "123", Text: "Backend role, no sponsorship restriction, requires Python and SQL"}
	got := newTestCascade(t, r).Classify(context.Background(), content)

	require.Equal(t, models.ItemID("123"), got.ID)
	require.Equal(t, models.ActionBookmarked, got.FinalAction)
	require.True(t, got.Stage1Pass)
	require.NotNil(t, got.Stage2Pass)
	require.True(t, *got.Stage2Pass)
	require.Equal(t, "Yes, job_type: Backend Engineer", *got.Stage2Explanation)
	require.NotNil(t, got.Stage3Pass)
	require.True(t, *got.Stage3Pass)
	require.Empty(t, got.ServiceError)
	require.Zero(t, got.InconclusiveStage)
	for n := 1; n <= models.StageCount; n++ {
		_, ok := got.Answer(n)
		require.True(t, ok, "stage %d answer", n)
	}
	require.Equal(t, "yes", *got.Stage3Answer)
}

func TestCascadeStage1NoShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)
	gomock.InOrder(expectStage(r, "The posting states no visa sponsorship.", "No")...)

	content := models.JobContent{ID: "456", Text: "We do not provide visa sponsorship."}
	got := newTestCascade(t, r).Classify(context.Background(), content)

	require.Equal(t, models.ActionSkipped, got.FinalAction)
	require.False(t, got.Stage1Pass)
	require.Equal(t, "The posting states no visa sponsorship.", got.Stage1Explanation)
	require.Nil(t, got.Stage2Pass)
	require.Nil(t, got.Stage2Explanation)
	require.Nil(t, got.Stage3Pass)
	require.Nil(t, got.Stage3Explanation)
}

func TestCascadeStage2NoSkipsStage3(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)
	var calls []*gomock.Call
	calls = append(calls, expectStage(r, "Eligible", "Yes")...)
	calls = append(calls, expectStage(r, "This is a project manager role", "No")...)
	gomock.InOrder(calls...)

	got := newTestCascade(t, r).Classify(context.Background(), models.JobContent{ID: "7", Text: "PM internship"})

	require.Equal(t, models.ActionSkipped, got.FinalAction)
	require.True(t, got.Stage1Pass)
	require.False(t, *got.Stage2Pass)
	require.Nil(t, got.Stage3Pass)
}

func TestCascadeServiceErrorAbortsItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)
	var calls []*gomock.Call
	calls = append(calls, expectStage(r, "Eligible", "Yes")...)
	calls = append(calls, r.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return("", errors.New("connection reset")))
	gomock.InOrder(calls...)

	got := newTestCascade(t, r).Classify(context.Background(), models.JobContent{ID: "8", Text: "text"})

	require.Equal(t, models.ActionSkipped, got.FinalAction)
	require.True(t, got.Failed())
	require.Contains(t, got.ServiceError, "connection reset")
	require.Contains(t, got.ServiceError, "domain-fit")
	require.NotNil(t, got.Stage2Pass)
	require.False(t, *got.Stage2Pass)
	require.Nil(t, got.Stage3Pass)
	// the failed re-ask left no answer behind
	require.NotNil(t, got.Stage1Answer)
	require.Nil(t, got.Stage2Answer)
}

func TestCascadeInconclusiveIsFlagged(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)
	gomock.InOrder(expectStage(r, "Graduation date is unclear", "It depends on the start date.")...)

	content := models.JobContent{ID: "9", Text: "Internship for students graduating soon"}
	got := newTestCascade(t, r).Classify(context.Background(), content)

	require.Equal(t, models.ActionSkipped, got.FinalAction)
	require.False(t, got.Stage1Pass)
	require.Equal(t, 1, got.InconclusiveStage)
	require.False(t, got.Failed())

	answer, ok := got.Answer(1)
	require.True(t, ok)
	require.Equal(t, "It depends on the start date.", answer)
	require.Nil(t, got.Stage2Answer)
	require.Equal(t, content.Text, got.Description)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	require.Contains(t, string(data), `"stage1Answer":"It depends on the start date."`)
	require.Contains(t, string(data), `"description":"Internship for students graduating soon"`)
	require.NotContains(t, string(data), "stage2Answer")
}

func TestCascadePromptsCarryContentAndAnswer(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)

	var prompts []string
	record := func(answer string) func(context.Context, string) (string, error) {
		return func(_ context.Context, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return answer, nil
		}
	}
	gomock.InOrder(
		r.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(record("first answer")),
		r.EXPECT().Invoke(gomock.Any(), gomock.Any()).DoAndReturn(record("No")),
	)

	newTestCascade(t, r).Classify(context.Background(), models.JobContent{ID: "10", Text: "UNIQUE-JOB-TEXT"})

	require.Len(t, prompts, 2)
	require.Contains(t, prompts[0], "UNIQUE-JOB-TEXT")
	require.Contains(t, prompts[0], "computer science")
	require.True(t, strings.HasSuffix(prompts[1], "first answer"))
}

func TestCascadeUsesRateLimiter(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockReasoner(ctrl)
	gomock.InOrder(expectStage(r, "Not eligible", "No")...)

	cfg := config.GetDefaultConfig()
	stages, err := StagesFromConfig(cfg.Stages)
	require.NoError(t, err)
	interval := 100 * time.Millisecond
	c, err := NewCascade(r, ratelimit.New(interval, nil), stages, cfg.Rubric, nil)
	require.NoError(t, err)

	start := time.Now()
	c.Classify(context.Background(), models.JobContent{ID: "11", Text: "text"})
	require.GreaterOrEqual(t, time.Since(start), interval-10*time.Millisecond)
}

func TestNewCascadeRequiresThreeStages(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, err := NewCascade(mocks.NewMockReasoner(ctrl), ratelimit.New(0, nil), nil, config.Rubric{}, nil)
	require.Error(t, err)
}
