package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"segrec/internal/usecase"
)

const recordPollInterval = 200 * time.Millisecond

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record until Ctrl+C or for a fixed duration",
		Long:  "Record the microphone in segments until interrupted.\nUse --duration to stop automatically, e.g. --duration 15s for three segments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecording(cmd.Context(), deps.Backend, duration)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 records until Ctrl+C)")

	return cmd
}

func runRecording(ctx context.Context, backend Backend, duration time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() { _ = backend.Shutdown(context.WithoutCancel(ctx)) }()

	backend.ShowProgress(true)
	if _, err := backend.StartRecording(ctx); err != nil {
		return err
	}

	waitForEnd(ctx, backend, duration)

	_, err := backend.StopRecording(context.WithoutCancel(ctx))
	if err != nil && !errors.Is(err, usecase.ErrNotRecording) {
		return err
	}
	return nil
}

// waitForEnd returns on interrupt, when duration elapses or when the session
// ends on its own.
func waitForEnd(ctx context.Context, backend Backend, duration time.Duration) {
	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	poll := time.NewTicker(recordPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-poll.C:
			if !backend.GetStatus().IsRecording {
				return
			}
		}
	}
}
