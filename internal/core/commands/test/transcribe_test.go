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

// Package commands_test contains unit tests for the pipeline commands. This
// file covers the transcription command over fake recognizers: instant
// completion, silence, and the distinct wait-budget timeout.
package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/commands"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"github.com/callcoach/gcp-go-call-coach/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecognizer completes instantly with a canned transcript or error and
// records the request it received.
type fakeRecognizer struct {
	transcript *speech.Transcript
	err        error
	request    speech.Request
}

func (f *fakeRecognizer) Recognize(_ context.Context, req speech.Request) (*speech.Transcript, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

func testRecognition() cloud.Recognition {
	return cloud.Recognition{
		LanguageCode:    "en-IN",
		SampleRateHertz: 16000,
		MinSpeakerCount: 1,
		MaxSpeakerCount: 2,
		MaxWaitSeconds:  600,
	}
}

func newTranscribeContext() (cor.Context, *model.CallArtifacts) {
	artifacts := &model.CallArtifacts{
		Bucket:      testInputBucket,
		VideoObject: "call1.mp4",
		AudioKey:    "audio/call1.flac",
	}
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, artifacts)
	return chainCtx, artifacts
}

func TestTranscribeFormatsDiarizedResult(t *testing.T) {
	recognizer := &fakeRecognizer{
		transcript: &speech.Transcript{
			Segments: []speech.Segment{
				{Words: []speech.Word{
					{Text: "hello", SpeakerTag: 1},
					{Text: "hi", SpeakerTag: 2},
				}},
			},
		},
	}
	command := commands.NewTranscribe("transcribe", recognizer, "call-coach-artifacts", testRecognition())
	chainCtx, artifacts := newTranscribeContext()

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "Speaker 1: hello\nSpeaker 2: hi", artifacts.Transcript)

	// The recognizer is handed the storage URI of the uploaded audio and
	// the configured diarization bounds.
	assert.Equal(t, "gs://call-coach-artifacts/audio/call1.flac", recognizer.request.URI)
	assert.Equal(t, int32(2), recognizer.request.MaxSpeakerCount)
	assert.Equal(t, "en-IN", recognizer.request.LanguageCode)
}

// A silent recording is not a failure: the review continues with an empty
// transcript.
func TestTranscribeAcceptsSilence(t *testing.T) {
	recognizer := &fakeRecognizer{transcript: &speech.Transcript{}}
	command := commands.NewTranscribe("transcribe", recognizer, "call-coach-artifacts", testRecognition())
	chainCtx, artifacts := newTranscribeContext()

	command.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "", artifacts.Transcript)
	assert.NotNil(t, chainCtx.Get(cor.CtxOut))
}

func TestTranscribeSurfacesWaitBudgetTimeout(t *testing.T) {
	recognizer := &fakeRecognizer{err: speech.ErrDeadlineExceeded}
	command := commands.NewTranscribe("transcribe", recognizer, "call-coach-artifacts", testRecognition())
	chainCtx, _ := newTranscribeContext()

	command.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	err := chainCtx.GetErrors()["transcribe"]
	require.Error(t, err)
	// The timeout keeps its distinct identity through the wrapping so the
	// operator can tell it apart from service failures.
	assert.True(t, errors.Is(err, speech.ErrDeadlineExceeded))
}

func TestTranscribeSurfacesServiceError(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("rpc unavailable")}
	command := commands.NewTranscribe("transcribe", recognizer, "call-coach-artifacts", testRecognition())
	chainCtx, _ := newTranscribeContext()

	command.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	assert.False(t, errors.Is(chainCtx.GetErrors()["transcribe"], speech.ErrDeadlineExceeded))
}
