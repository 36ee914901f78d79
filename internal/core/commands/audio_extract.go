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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that extracts the audio track from the downloaded video. The
// actual extraction lives behind the media.Extractor interface so the
// workflow can be tested without an ffmpeg binary.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"github.com/callcoach/gcp-go-call-coach/internal/media"
)

// AudioExtract is a command that produces the call's lossless audio file
// from the locally downloaded video.
type AudioExtract struct {
	cor.BaseCommand
	extractor media.Extractor
}

// NewAudioExtract is the constructor for the AudioExtract command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - extractor: The audio extractor, normally a media.FFmpegExtractor.
//
// Outputs:
//   - *AudioExtract: A pointer to the newly instantiated command.
func NewAudioExtract(name string, extractor media.Extractor) *AudioExtract {
	return &AudioExtract{BaseCommand: *cor.NewBaseCommand(name), extractor: extractor}
}

// Execute runs the extractor against the downloaded video and records the
// resulting audio path on the workflow state.
func (c *AudioExtract) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	audioPath, err := c.extractor.Extract(context.GetContext(), artifacts.LocalVideoPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("audio extraction failed for %s: %w", artifacts.VideoObject, err))
		return
	}
	context.AddTempFile(audioPath)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("extracted audio track",
		"object", artifacts.VideoObject,
		"audioPath", audioPath)

	artifacts.LocalAudioPath = audioPath
	context.Add(c.GetOutputParam(), artifacts)
}
