package fileinfo

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/meetmate/core/internal/apperr"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
		{5 * 1024 * 1024 * 1024 * 1024, "5120 GB"},
		{1048575, "1 MB"},
		{20 * 1024 * 1024, "20 MB"},
		{1234567, "1.18 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSizeMantissaRange(t *testing.T) {
	for _, n := range []int64{1, 7, 999, 1023, 1024, 1025, 65535, 1 << 20, 1<<20 + 1, 1<<30 - 1, 1 << 30, 3 << 30} {
		got := FormatSize(n)
		parts := strings.SplitN(got, " ", 2)
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			t.Fatalf("FormatSize(%d) = %q: unparsable mantissa", n, got)
		}
		if parts[1] != "GB" && (v < 1 || v >= 1024) {
			t.Errorf("FormatSize(%d) = %q: mantissa out of [1,1024)", n, got)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.m4a":  "audio/mp4",
		"a.MP4":  "audio/mp4",
		"a.mp3":  "audio/mpeg",
		"a.wav":  "audio/wav",
		"a.aac":  "audio/aac",
		"a.ogg":  "audio/ogg",
		"a.webm": "audio/webm",
		"a.flac": DefaultContentType,
		"noext":  DefaultContentType,
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standup.MP3")
	if err := os.WriteFile(path, make([]byte, 1536), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Filename != "standup.MP3" || info.Filetype != "audio/mpeg" || info.Size != 1536 || info.SizeFormatted != "1.5 KB" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.m4a"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInspectDirectory(t *testing.T) {
	_, err := Inspect(t.TempDir())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for directory, got %v", err)
	}
}
