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

// Package media extracts the audio track from call recordings. Extraction
// sits behind a narrow interface so the pipeline can be exercised in tests
// without an ffmpeg binary on the path.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Extractor produces a lossless audio file from a local video file and
// returns the path of the extracted audio.
type Extractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// FFmpegExtractor shells out to ffmpeg to extract the audio track as FLAC,
// downmixed to mono at 16 kHz. FLAC keeps the extraction lossless so
// transcription quality is bounded only by the recording itself.
type FFmpegExtractor struct {
	// BinaryPath locates the ffmpeg binary; empty means "ffmpeg" on PATH.
	BinaryPath string
}

// NewFFmpegExtractor returns an extractor using the ffmpeg binary at path,
// or the one on PATH when path is empty.
func NewFFmpegExtractor(path string) *FFmpegExtractor {
	return &FFmpegExtractor{BinaryPath: path}
}

// Extract writes the audio track of videoPath to a sibling .flac file and
// returns its path. A run that exits zero but leaves no usable output is
// reported as an error, since ffmpeg can fail quietly on malformed input.
func (f *FFmpegExtractor) Extract(ctx context.Context, videoPath string) (string, error) {
	binary := f.BinaryPath
	if binary == "" {
		binary = "ffmpeg"
	}

	audioPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".flac"

	cmd := exec.CommandContext(ctx, binary,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "flac",
		"-ar", "16000",
		"-ac", "1",
		audioPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed on %s: %w: %s", videoPath, err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("ffmpeg produced no output for %s: %w", videoPath, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("ffmpeg produced an empty audio file for %s", videoPath)
	}
	return audioPath, nil
}
