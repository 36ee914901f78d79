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
// transcription command.
//
// Logic Flow:
//
//  1. Receives the `model.CallArtifacts` for the review. The audio has
//     already been uploaded, so the recognizer is given the storage URI of
//     the FLAC object rather than inline audio bytes.
//  2. Blocks on the recognizer until the transcript is ready or the wait
//     budget is exhausted. A timeout is reported through the distinct
//     speech.ErrDeadlineExceeded sentinel and logged as such, because it
//     points at a systemic limit rather than a transient fault.
//  3. Formats the diarized result as speaker-labeled text. Silence is not an
//     error: a call with no recognizable speech produces an empty transcript
//     and the review continues.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"github.com/callcoach/gcp-go-call-coach/internal/speech"
)

// Transcribe is a command that turns the uploaded call audio into a
// speaker-labeled transcript.
type Transcribe struct {
	cor.BaseCommand
	recognizer  speech.Recognizer
	bucket      string // The output bucket holding the uploaded audio.
	recognition cloud.Recognition
}

// NewTranscribe is the constructor for the Transcribe command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - recognizer: The speech recognizer, normally a speech.GoogleRecognizer.
//   - bucket: The output bucket where the audio object lives.
//   - recognition: The request settings from configuration.
//
// Outputs:
//   - *Transcribe: A pointer to the newly instantiated command.
func NewTranscribe(name string, recognizer speech.Recognizer, bucket string, recognition cloud.Recognition) *Transcribe {
	return &Transcribe{
		BaseCommand: *cor.NewBaseCommand(name),
		recognizer:  recognizer,
		bucket:      bucket,
		recognition: recognition,
	}
}

// Execute submits the audio for recognition and stores the formatted
// transcript on the workflow state.
func (c *Transcribe) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	audioURI := cloud.StorageURI(c.bucket, artifacts.AudioKey)
	transcript, err := c.recognizer.Recognize(context.GetContext(), speech.Request{
		URI:             audioURI,
		LanguageCode:    c.recognition.LanguageCode,
		SampleRateHertz: c.recognition.SampleRateHertz,
		MinSpeakerCount: c.recognition.MinSpeakerCount,
		MaxSpeakerCount: c.recognition.MaxSpeakerCount,
	})
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		if errors.Is(err, speech.ErrDeadlineExceeded) {
			// Systemic, not transient: redelivery will hit the same wall
			// until the recording shrinks or the budget grows.
			slog.Error("transcription wait budget exhausted",
				"audioURI", audioURI,
				"maxWaitSeconds", c.recognition.MaxWaitSeconds)
		}
		context.AddError(c.GetName(), fmt.Errorf("transcription of %s failed: %w", audioURI, err))
		return
	}

	text := transcript.Format()
	if text == "" {
		slog.Warn("no speech recognized in call audio", "audioURI", audioURI)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	artifacts.Transcript = text
	context.Add(c.GetOutputParam(), artifacts)
}
