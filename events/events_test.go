package events_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vesting-project/events"
	"vesting-project/models"
)

func TestSQLiteRecorder_EmitAndList(t *testing.T) {
	rec, err := events.NewSQLiteRecorder(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	require.NoError(t, rec.Emit(ctx, models.Event{ID: "1", Type: models.EventVestingInitialized, BlockTime: 10}))
	require.NoError(t, rec.Emit(ctx, models.Event{
		ID:            "2",
		Type:          models.EventClaim,
		RoundName:     "hash-token",
		Recipient:     "account-hash-alice",
		DepositAmount: "300",
		BlockTime:     20,
	}))

	list, err := rec.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "2", list[0].ID)
	require.Equal(t, "300", list[0].DepositAmount)
	require.Equal(t, uint64(20), list[0].BlockTime)

	// ids are unique
	require.Error(t, rec.Emit(ctx, models.Event{ID: "2", Type: models.EventClaim}))
}

func TestLogAndNoopSinks(t *testing.T) {
	var sink events.Sink = events.NewLogSink(zap.NewNop())
	require.NoError(t, sink.Emit(context.Background(), models.Event{ID: "x", Type: models.EventReleased}))

	sink = events.NewNoopSink()
	require.NoError(t, sink.Emit(context.Background(), models.Event{ID: "y"}))
}
