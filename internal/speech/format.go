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
	"fmt"
	"sort"
	"strings"
)

// Format renders the transcript as one "Speaker N: ..." line per diarized
// speaker, speakers in ascending tag order. When the service produced no
// word-level speaker labels the segment texts are concatenated instead, so
// a transcript is still produced for non-diarized results. An empty
// transcript renders as the empty string.
func (t *Transcript) Format() string {
	if t == nil || len(t.Segments) == 0 {
		return ""
	}

	speakerWords := make(map[int][]string)
	for _, seg := range t.Segments {
		for _, w := range seg.Words {
			speakerWords[w.SpeakerTag] = append(speakerWords[w.SpeakerTag], w.Text)
		}
	}

	if len(speakerWords) == 0 {
		var texts []string
		for _, seg := range t.Segments {
			if s := strings.TrimSpace(seg.Text); s != "" {
				texts = append(texts, s)
			}
		}
		return strings.Join(texts, "\n")
	}

	tags := make([]int, 0, len(speakerWords))
	for tag := range speakerWords {
		tags = append(tags, tag)
	}
	sort.Ints(tags)

	lines := make([]string, 0, len(tags))
	for _, tag := range tags {
		lines = append(lines, fmt.Sprintf("Speaker %d: %s", tag, strings.Join(speakerWords[tag], " ")))
	}
	return strings.Join(lines, "\n")
}
