package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"segrec/internal/config"
	"segrec/internal/domain"
	"segrec/internal/version"
)

// Backend is the recording surface the commands drive.
type Backend interface {
	StartRecording(ctx context.Context) (domain.Status, error)
	StopRecording(ctx context.Context) (domain.StopSummary, error)
	TogglePlayback(ctx context.Context, segmentID string) error
	StopPlayback()
	GetStatus() domain.Status
	ShowProgress(enabled bool)
	Shutdown(ctx context.Context) error
}

type Dependencies struct {
	Backend Backend
	Config  *config.Config
}

// ReportedError marks an error the backend already showed to the user.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// Reported wraps err so callers skip printing it again.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return &ReportedError{Err: err}
}

func IsReported(err error) bool {
	var reported *ReportedError
	return errors.As(err, &reported)
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "segrec",
		Short:         "Record the microphone in fixed-length segments",
		Long:          "A CLI tool that records the microphone into consecutive 5-second audio files and plays them back.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewShellCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
