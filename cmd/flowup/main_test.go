package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectCapturesExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page_01.png", "page_02.png", "page_03.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0700))
	extra := filepath.Join(t.TempDir(), "cover.webp")
	require.NoError(t, os.WriteFile(extra, []byte("x"), 0600))

	files, err := collectCaptures([]string{dir, extra})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "page_01.png"),
		filepath.Join(dir, "page_02.png"),
		filepath.Join(dir, "page_03.jpg"),
		extra,
	}, files)
}

func TestCollectCapturesMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	_, err := collectCaptures([]string{missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestIsCaptureFile(t *testing.T) {
	assert.True(t, isCaptureFile("page_1.png"))
	assert.True(t, isCaptureFile("PAGE_1.PNG"))
	assert.True(t, isCaptureFile("photo.jpeg"))
	assert.False(t, isCaptureFile("notes.txt"))
	assert.False(t, isCaptureFile("archive.zip"))
	assert.False(t, isCaptureFile("noextension"))
}

func TestToDataURL(t *testing.T) {
	payload := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

	url := toDataURL(payload)

	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
