// Package output formats CLI messages.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meetmate/core/internal/fileinfo"
	"github.com/meetmate/core/internal/models"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Uploading(info models.FileInfo) {
	fmt.Fprintf(f.w, "⬆️  Uploading %s (%s)\n", info.Filename, info.SizeFormatted)
}

func (f *Formatter) Progress(p models.UploadProgress) {
	fmt.Fprintf(f.w, "   %3d%%  %s / %s\n", p.Percentage, fileinfo.FormatSize(p.BytesUploaded), fileinfo.FormatSize(p.BytesTotal))
}

func (f *Formatter) MeetingSaved(m *models.Meeting) {
	fmt.Fprintf(f.w, "✅ Meeting saved: %s (%s)\n", m.Name, m.ID)
}

func (f *Formatter) ProcessingStarted(msg string) {
	fmt.Fprintf(f.w, "🤖 Processing started: %s\n", msg)
}

func (f *Formatter) ProcessingFailed(msg string, status int) {
	if status > 0 {
		fmt.Fprintf(f.w, "⚠️  Processing not started (HTTP %d): %s\n", status, msg)
		return
	}
	fmt.Fprintf(f.w, "⚠️  Processing not started: %s\n", msg)
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

func (f *Formatter) Onboarding() {
	fmt.Fprintf(f.w, "👋 Welcome to MeetMate!\n")
	fmt.Fprintf(f.w, "   Record a meeting, then run `meeting upload <file>` to store it and get a summary.\n\n")
}

func (f *Formatter) MeetingListHeader() {
	fmt.Fprintf(f.w, "📁 Meetings:\n\n")
}

func (f *Formatter) MeetingListItem(m models.Meeting) {
	fmt.Fprintf(f.w, "  %s  %s  %-40s %s\n", statusIcon(m.Status), m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Name, m.ID)
}

func (f *Formatter) MeetingDetail(m *models.Meeting) {
	fmt.Fprintf(f.w, "%s %s\n", statusIcon(m.Status), m.Name)
	fmt.Fprintf(f.w, "   id:        %s\n", m.ID)
	fmt.Fprintf(f.w, "   created:   %s\n", m.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(f.w, "   status:    %s\n", m.Status)
	fmt.Fprintf(f.w, "   recording: %s\n", m.Recording)
	if m.Summary != nil {
		fmt.Fprintf(f.w, "\n📝 Summary\n%s\n", indent(m.Summary.Text))
	}
	if len(m.Annotation) > 0 {
		fmt.Fprintf(f.w, "\n🗒️  Transcript\n")
		for _, seg := range m.Annotation {
			fmt.Fprintf(f.w, "   [%s] %s\n", formatOffset(seg.Start), seg.Text)
		}
	}
}

func statusIcon(s models.ProcessingStatus) string {
	switch s {
	case models.StatusProcessing:
		return "⏳"
	case models.StatusCompleted:
		return "✅"
	default:
		return "⏸️ "
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "   " + l
	}
	return strings.Join(lines, "\n")
}

func formatOffset(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d", m, s)
}
