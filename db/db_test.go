package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"jobscout/models"
)

func TestNullHelpers(t *testing.T) {
	yes := true
	text := "backend role"

	require.False(t, nullBool(nil).Valid)
	require.Equal(t, true, nullBool(&yes).Bool)
	require.False(t, nullString(nil).Valid)
	require.Equal(t, text, nullString(&text).String)
	require.False(t, nullText("").Valid)
	require.True(t, nullText("saved").Valid)
	require.False(t, nullInt(0).Valid)
	require.Equal(t, int64(2), nullInt(2).Int64)
}

func TestConnStringFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "secret")

	got := connStringFromEnv()
	require.Contains(t, got, "host=db.internal")
	require.Contains(t, got, "user=jobscout")
	require.Contains(t, got, "password=secret")
	require.Contains(t, got, "sslmode=disable")
}

func TestSaveOutcomeRoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := NewDB(ctx, url, nil)
	require.NoError(t, err)
	defer db.Close()

	key := uuid.New()
	runID, err := db.StartRun(ctx, key)
	require.NoError(t, err)

	id := models.ItemID("test-" + time.Now().Format("150405.000000"))
	outcome := models.ClassificationOutcome{ID: id, FinalAction: models.ActionSkipped, ProcessedAt: time.Now().UTC()}
	outcome.SetStage(1, true, "eligible")
	outcome.SetStage(2, false, "project manager role")
	outcome.SetAnswer(1, "Yes")
	outcome.SetAnswer(2, "No")
	outcome.Description = "Project manager internship"

	require.NoError(t, db.Recorder(runID).RecordOutcome(ctx, outcome))
	// a second write of the same job replaces the row
	outcome.FinalAction = models.ActionBookmarked
	require.NoError(t, db.SaveOutcome(ctx, runID, outcome))

	counts, err := db.CountOutcomes(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, counts[models.ActionBookmarked], 1)

	require.NoError(t, db.FinishRun(ctx, runID, RunStats{Processed: 1, Reason: "no more items"}))
	runs, err := db.LastRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, runID, runs[0].ID)
	require.Equal(t, key, runs[0].Key)
	require.True(t, runs[0].FinishedAt.Valid)
}
