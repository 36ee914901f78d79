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

// Package speech abstracts the speech-to-text service behind a narrow
// capability interface. The pipeline submits a storage URI and waits for a
// speaker-labeled transcript; the wait is bounded, and exhausting the bound
// is a distinct, systemic failure (ErrDeadlineExceeded) rather than a
// transient one. Test doubles implement Recognizer to simulate instant
// completion or timeout without a real service call.
package speech

import (
	"context"
	"errors"
)

// ErrDeadlineExceeded reports that the long-running recognition operation
// did not reach a terminal state within the configured wait budget. It
// indicates a systemic limit, not a transient error, and is logged
// distinctly by callers.
var ErrDeadlineExceeded = errors.New("transcription did not complete within the wait budget")

// Request describes one transcription of an audio object in storage.
type Request struct {
	URI             string // gs:// URI of the audio object.
	LanguageCode    string // BCP-47 language code.
	SampleRateHertz int32  // Sample rate of the audio.
	MinSpeakerCount int32  // Lower diarization bound.
	MaxSpeakerCount int32  // Upper diarization bound; the pipeline fixes this at two.
}

// Word is a single recognized word with its inferred speaker.
type Word struct {
	Text       string
	SpeakerTag int // Diarization label starting at 1; 0 when diarization produced none.
}

// Segment is one recognition result: the best alternative's transcript text
// and, when diarization ran, its word-level speaker labels.
type Segment struct {
	Text       string
	Confidence float32
	Words      []Word
}

// Transcript is the ordered sequence of recognized segments for one audio
// object.
type Transcript struct {
	Segments []Segment
}

// Recognizer submits audio for transcription and blocks until the service
// reaches a terminal state or the wait budget is exhausted.
type Recognizer interface {
	Recognize(ctx context.Context, req Request) (*Transcript, error)
}
