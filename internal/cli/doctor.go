package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"segrec/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			cfg := deps.Config
			ok := true

			for _, tool := range []struct {
				name    string
				command string
			}{
				{name: "ffmpeg", command: cfg.Audio.RecorderCommand},
				{name: "ffplay", command: cfg.Audio.PlayerCommand},
			} {
				if path, err := exec.LookPath(tool.command); err != nil {
					f.SetupCheck(tool.name, false, fmt.Sprintf("%q not found. Install ffmpeg or set the command in config", tool.command))
					ok = false
				} else {
					f.SetupCheck(tool.name, true, path)
				}
			}

			f.SetupCheck("Microphone", true,
				fmt.Sprintf("%s device %q, permission is probed on first recording", cfg.Audio.InputFormat, cfg.Audio.InputDevice))

			if err := checkWritableDir(cfg.DocumentsDir); err != nil {
				f.SetupCheck("Documents directory", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Documents directory", true, cfg.DocumentsDir)
			}

			if err := checkWritableDir(cfg.StagingDir); err != nil {
				f.SetupCheck("Staging directory", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Staging directory", true, cfg.StagingDir)
			}

			if cfg.FilePath != "" {
				f.SetupCheck("Config file", true, cfg.FilePath)
			} else {
				f.SetupCheck("Config file", true, "none, using defaults and SEGREC_* environment")
			}

			if ok {
				f.Success("All prerequisites met. Ready to record!")
			} else {
				f.Warning("Some prerequisites are missing.")
			}
			return nil
		},
	}
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".segrec-doctor-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}
