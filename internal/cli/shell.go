package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"segrec/internal/output"
	"segrec/internal/usecase"
)

const shellHelp = `Commands:
  start          start a segmented recording
  stop           stop recording and save the open segment
  play <id|#>    play or stop a segment by id or list number
  halt           stop playback
  status         show session state
  list           list segments recorded in this session
  help           show this help
  quit           stop everything and exit`

func NewShellCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive recording session",
		Long:  "Start an interactive session to record, list and play back segments.\n\n" + shellHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sh := &shell{
				backend: deps.Backend,
				out:     cmd.OutOrStdout(),
				f:       output.NewFormatter(cmd.OutOrStdout()),
			}
			return sh.run(ctx, cmd.InOrStdin())
		},
	}
}

type shell struct {
	backend Backend
	out     io.Writer
	f       *output.Formatter
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	defer func() {
		if err := s.backend.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.f.Error(err.Error())
		}
	}()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	s.f.Info("Type 'help' for commands")
	for {
		fmt.Fprint(s.out, "segrec> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return nil
			}
			if quit := s.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one shell line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		if _, err := s.backend.StartRecording(ctx); err != nil {
			s.report(err)
		}
	case "stop":
		if _, err := s.backend.StopRecording(context.WithoutCancel(ctx)); err != nil {
			if errors.Is(err, usecase.ErrNotRecording) {
				s.f.Info("Not recording")
				return false
			}
			s.report(err)
		}
	case "play":
		if len(fields) < 2 {
			s.f.Warning("usage: play <id|#>")
			return false
		}
		id, err := s.resolveSegment(fields[1])
		if err != nil {
			s.f.Warning(err.Error())
			return false
		}
		if err := s.backend.TogglePlayback(ctx, id); err != nil {
			s.report(err)
		}
	case "halt":
		s.backend.StopPlayback()
	case "status":
		s.f.Status(s.backend.GetStatus())
	case "list", "ls":
		s.list()
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit", "q":
		return true
	default:
		s.f.Warning(fmt.Sprintf("unknown command %q, type 'help'", fields[0]))
	}
	return false
}

// resolveSegment accepts a segment id or its 1-based list number.
func (s *shell) resolveSegment(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return arg, nil
	}
	segments := s.backend.GetStatus().Segments
	if n < 1 || n > len(segments) {
		return "", fmt.Errorf("no segment #%d (have %d)", n, len(segments))
	}
	return segments[n-1].ID, nil
}

func (s *shell) list() {
	status := s.backend.GetStatus()
	if len(status.Segments) == 0 {
		s.f.Info("No segments recorded yet")
		return
	}
	s.f.SegmentListHeader()
	for i, seg := range status.Segments {
		s.f.SegmentListItem(i+1, seg, seg.ID == status.PlayingSegmentID)
	}
}

func (s *shell) report(err error) {
	if IsReported(err) {
		return
	}
	s.f.Error(err.Error())
}
