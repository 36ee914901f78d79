// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeFFmpeg places an executable script on disk that stands in for
// ffmpeg: it writes the given body into the output path, which the real
// binary always passes as the final argument.
func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\nfor out do :; done\nprintf '%s' \"" + body + "\" > \"$out\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeVideoFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "call1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestExtractProducesSiblingFlacPath(t *testing.T) {
	videoPath := writeVideoFixture(t)
	extractor := NewFFmpegExtractor(writeFakeFFmpeg(t, "flac-bytes"))

	audioPath, err := extractor.Extract(context.Background(), videoPath)
	assert.NoError(t, err)
	assert.Equal(t, ".flac", filepath.Ext(audioPath))
	assert.Equal(t, filepath.Dir(videoPath), filepath.Dir(audioPath))

	content, err := os.ReadFile(audioPath)
	assert.NoError(t, err)
	assert.Equal(t, "flac-bytes", string(content))
}

// ffmpeg can exit zero and still produce nothing useful on malformed input;
// an empty output file must be treated as a failed extraction.
func TestExtractRejectsEmptyOutput(t *testing.T) {
	videoPath := writeVideoFixture(t)
	extractor := NewFFmpegExtractor(writeFakeFFmpeg(t, ""))

	_, err := extractor.Extract(context.Background(), videoPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty audio file")
}

func TestExtractReportsMissingBinary(t *testing.T) {
	videoPath := writeVideoFixture(t)
	extractor := NewFFmpegExtractor(filepath.Join(t.TempDir(), "missing-ffmpeg"))

	_, err := extractor.Extract(context.Background(), videoPath)
	assert.Error(t, err)
}
