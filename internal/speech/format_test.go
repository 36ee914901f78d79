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

package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGroupsWordsBySpeaker(t *testing.T) {
	transcript := &Transcript{
		Segments: []Segment{
			{
				Text: "hello there how are you",
				Words: []Word{
					{Text: "hello", SpeakerTag: 1},
					{Text: "there", SpeakerTag: 1},
					{Text: "how", SpeakerTag: 2},
					{Text: "are", SpeakerTag: 2},
					{Text: "you", SpeakerTag: 2},
				},
			},
		},
	}

	out := transcript.Format()
	assert.Equal(t, "Speaker 1: hello there\nSpeaker 2: how are you", out)
}

func TestFormatOrdersSpeakersByTag(t *testing.T) {
	transcript := &Transcript{
		Segments: []Segment{
			{Words: []Word{
				{Text: "second", SpeakerTag: 2},
				{Text: "first", SpeakerTag: 1},
			}},
		},
	}

	out := transcript.Format()
	assert.Equal(t, "Speaker 1: first\nSpeaker 2: second", out)
}

// Without diarization labels the formatter falls back to the raw segment
// texts, so a usable transcript is still produced.
func TestFormatFallsBackToSegmentText(t *testing.T) {
	transcript := &Transcript{
		Segments: []Segment{
			{Text: "first utterance."},
			{Text: "second utterance."},
			{Text: "  "},
		},
	}

	out := transcript.Format()
	assert.Equal(t, "first utterance.\nsecond utterance.", out)
}

func TestFormatEmptyTranscript(t *testing.T) {
	assert.Equal(t, "", (&Transcript{}).Format())
	var nilTranscript *Transcript
	assert.Equal(t, "", nilTranscript.Format())
}

func TestFormatCollectsWordsAcrossSegments(t *testing.T) {
	transcript := &Transcript{
		Segments: []Segment{
			{Words: []Word{{Text: "one", SpeakerTag: 1}}},
			{Words: []Word{{Text: "two", SpeakerTag: 1}}},
		},
	}

	assert.Equal(t, "Speaker 1: one two", transcript.Format())
}
