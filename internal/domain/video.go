package domain

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Source opens the bytes of a selected video. Each call returns a fresh reader.
type Source interface {
	Open() (io.ReadSeekCloser, error)
}

// FileSource reads a video from a local path.
type FileSource string

// Open opens the file at the source path.
func (s FileSource) Open() (io.ReadSeekCloser, error) {
	return os.Open(string(s))
}

// BytesSource serves a video held in memory.
type BytesSource []byte

// Open returns a reader over the in-memory bytes.
func (s BytesSource) Open() (io.ReadSeekCloser, error) {
	return nopCloser{bytes.NewReader(s)}, nil
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// Video is an opaque handle to a local video file plus its metadata.
type Video struct {
	Name        string
	ContentType string
	Size        int64
	Source      Source
}

// Info returns presentation metadata for the video.
func (v Video) Info(previewURL string) FileInfo {
	return FileInfo{
		Name:        v.Name,
		ContentType: v.ContentType,
		Size:        v.Size,
		PreviewURL:  previewURL,
	}
}

// VideoFromPath stats a local file and wraps it as a selectable video.
func VideoFromPath(path string) (Video, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Video{}, fmt.Errorf("video path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return Video{}, fmt.Errorf("resolve video path: %w", err)
	}
	if info.IsDir() {
		return Video{}, fmt.Errorf("video path is a directory: %s", path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "video/mp4"
	}

	return Video{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Source:      FileSource(path),
	}, nil
}
