package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"segrec/internal/domain"
)

const progressWidth = 10

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted() {
	fmt.Fprintf(f.w, "🎙️  Recording started\n")
}

// Progress prints one line per clock second.
func (f *Formatter) Progress(elapsedSeconds int, progress int, ticksPerSegment int) {
	fmt.Fprintf(f.w, "⏺  %s  %s %d/%d\n",
		formatDuration(time.Duration(elapsedSeconds)*time.Second),
		progressBar(progress, ticksPerSegment),
		progress,
		ticksPerSegment,
	)
}

func (f *Formatter) Finalizing() {
	fmt.Fprintf(f.w, "⏳ Finalizing last segment...\n")
}

func (f *Formatter) SegmentSaved(segment domain.Segment) {
	fmt.Fprintf(f.w, "💾 Segment %d saved: %s\n", segment.Sequence, segment.StoredPath)
}

func (f *Formatter) RecordingStopped(summary domain.StopSummary) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s, %s)\n",
		formatDuration(summary.Duration),
		pluralize(summary.SegmentsSaved, "segment", "segments"),
	)
}

func (f *Formatter) PlaybackStarted(segmentID string) {
	fmt.Fprintf(f.w, "▶️  Playing %s\n", segmentID)
}

func (f *Formatter) PlaybackStopped() {
	fmt.Fprintf(f.w, "⏸️  Playback stopped\n")
}

func (f *Formatter) Status(status domain.Status) {
	fmt.Fprintf(f.w, "State: %s\n", status.State)
	if status.IsRecording {
		fmt.Fprintf(f.w, "Elapsed: %s\n", formatDuration(time.Duration(status.ElapsedSeconds)*time.Second))
		fmt.Fprintf(f.w, "Segment progress: %.0f%%\n", status.ProgressFraction*100)
	}
	fmt.Fprintf(f.w, "Segments: %d\n", len(status.Segments))
	if status.PlayingSegmentID != "" {
		fmt.Fprintf(f.w, "Playing: %s\n", status.PlayingSegmentID)
	}
	if status.Message != "" {
		fmt.Fprintf(f.w, "Message: %s\n", status.Message)
	}
}

func (f *Formatter) SegmentListHeader() {
	fmt.Fprintf(f.w, "📁 Segments:\n\n")
}

// SegmentListItem prints a session segment with its 1-based shell index.
func (f *Formatter) SegmentListItem(index int, segment domain.Segment, playing bool) {
	marker := ""
	if playing {
		marker = " ▶️"
	}
	fmt.Fprintf(f.w, "  %2d. %s  %s  %s%s\n",
		index,
		segment.ID,
		segment.CreatedTime().Format("15:04:05"),
		segment.FileName,
		marker,
	)
}

// FileListItem prints a segment file found on disk.
func (f *Formatter) FileListItem(name string, size int64, modified time.Time) {
	fmt.Fprintf(f.w, "  %s  %s  %s\n", modified.Format("2006-01-02 15:04:05"), formatSize(size), name)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func progressBar(progress int, total int) string {
	if total <= 0 {
		return "[" + strings.Repeat("░", progressWidth) + "]"
	}
	if progress < 0 {
		progress = 0
	}
	if progress > total {
		progress = total
	}
	filled := progress * progressWidth / total
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled) + "]"
}

func pluralize(n int, singular string, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
