package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fakeFFMPEG = `#!/usr/bin/env bash
out="${@: -1}"
printf 'aac-data' > "$out"
exec sleep 5
`

func TestFFMPEGRecorderOpenAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "ffmpeg.sh", fakeFFMPEG)
	staging := filepath.Join(t.TempDir(), "staging")
	recorder := NewFFMPEGRecorder(script, Config{StagingDir: staging}, nil)

	if err := recorder.Prepare(context.Background()); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if _, err := os.Stat(staging); err != nil {
		t.Fatalf("expected staging dir: %v", err)
	}

	handle, err := recorder.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := handle.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	// A second stop returns the cached result.
	if err := handle.Stop(context.Background()); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	uri := handle.URI()
	if !strings.HasPrefix(uri, staging) || !strings.HasSuffix(uri, ".m4a") {
		t.Fatalf("unexpected uri: %q", uri)
	}
	data, err := os.ReadFile(uri)
	if err != nil || string(data) != "aac-data" {
		t.Fatalf("unexpected capture contents: %q err=%v", data, err)
	}
}

func TestFFMPEGRecorderEmptyCaptureHasNoURI(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "ffmpeg.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	recorder := NewFFMPEGRecorder(script, Config{StagingDir: t.TempDir()}, nil)

	handle, err := recorder.Open(context.Background())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := handle.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if uri := handle.URI(); uri != "" {
		t.Fatalf("expected empty uri, got %q", uri)
	}
}

func TestFFMPEGRecorderOpenEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	recorder := NewFFMPEGRecorder(script, Config{StagingDir: t.TempDir()}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := recorder.Open(ctx)
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before start") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFFMPEGRecorderPrepareMissingBinary(t *testing.T) {
	t.Parallel()

	recorder := NewFFMPEGRecorder(filepath.Join(t.TempDir(), "missing-ffmpeg"), Config{}, nil)
	if err := recorder.Prepare(context.Background()); err == nil {
		t.Fatalf("expected missing binary error")
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
}

func TestStringsTrimSpaceSafe(t *testing.T) {
	t.Parallel()

	if got := stringsTrimSpaceSafe("  hi\n"); got != "hi" {
		t.Fatalf("unexpected trim result: %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	if cfg.SampleRate != 44100 || cfg.Channels != 1 || cfg.InputFormat != "pulse" || cfg.InputDevice != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StagingDir == "" {
		t.Fatalf("expected staging dir default")
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
