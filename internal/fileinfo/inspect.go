// Package fileinfo reads metadata of local recording files.
package fileinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/models"
)

// DefaultContentType is used for unknown or missing extensions.
const DefaultContentType = "audio/mp4"

var audioTypes = map[string]string{
	"m4a":  "audio/mp4",
	"mp4":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// Inspect returns the metadata of the file at path.
func Inspect(path string) (models.FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.FileInfo{}, apperr.NotFound("file does not exist", err)
		}
		return models.FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return models.FileInfo{}, apperr.NotFound("file does not exist", fmt.Errorf("%s is a directory", path))
	}

	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = fmt.Sprintf("recording_%d.m4a", time.Now().UnixMilli())
	}
	size := st.Size()
	return models.FileInfo{
		Filename:      name,
		Filetype:      ContentType(name),
		Size:          size,
		SizeFormatted: FormatSize(size),
	}, nil
}

// ContentType maps the lowercase extension of name to an audio MIME type.
func ContentType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}

// IsAudio reports whether name has one of the recognised recording extensions.
func IsAudio(name string) bool {
	_, ok := audioTypes[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]
	return ok
}

// FormatSize renders n bytes in base-1024 units with up to two decimals.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := 0
	v := float64(n)
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if i < len(sizeUnits)-1 && s == "1024" {
		// 1023.996 KB rounds up to the next unit
		s = "1"
		i++
	}
	return s + " " + sizeUnits[i]
}
