package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	outboxDomain "github.com/allisson/kbsync/internal/outbox/domain"
)

func TestDispatchEvents(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockDispatcher := &mockDispatchRunner{}
		mockDispatcher.On("DispatchBatch", ctx, mock.Anything).Return(&outboxDomain.DispatchReport{
			Claimed:      3,
			Processed:    2,
			Failed:       1,
			DeadLettered: 1,
		}, nil)

		var out bytes.Buffer
		err := dispatchEvents(ctx, mockDispatcher, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Claimed 3 event(s): 2 processed, 1 failed, 1 dead-lettered")
		mockDispatcher.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockDispatcher := &mockDispatchRunner{}
		mockDispatcher.On("DispatchBatch", ctx, mock.Anything).Return(&outboxDomain.DispatchReport{
			Claimed:   5,
			Processed: 5,
		}, nil)

		var out bytes.Buffer
		err := dispatchEvents(ctx, mockDispatcher, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"claimed": 5`)
		require.Contains(t, out.String(), `"processed": 5`)
		mockDispatcher.AssertExpectations(t)
	})

	t.Run("dispatch-error", func(t *testing.T) {
		mockDispatcher := &mockDispatchRunner{}
		mockDispatcher.On("DispatchBatch", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

		err := dispatchEvents(ctx, mockDispatcher, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to dispatch events")
	})
}

func TestRunDispatchEventsInvalidFormat(t *testing.T) {
	err := RunDispatchEvents(context.Background(), "yaml")

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid format")
}
