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
	"context"
	"errors"
	"fmt"
	"time"

	apiv1 "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/cenkalti/backoff/v4"
)

// errOperationPending marks a poll that found the operation still running,
// so the backoff policy schedules another attempt.
var errOperationPending = errors.New("recognition operation still running")

// GoogleRecognizer implements Recognizer on the Cloud Speech-to-Text
// long-running recognition API. Audio is referenced by storage URI (never
// inlined), and the operation is polled with exponential backoff until it
// completes or maxWait elapses.
type GoogleRecognizer struct {
	client       *apiv1.Client
	maxWait      time.Duration
	pollInterval time.Duration
}

// NewGoogleRecognizer wraps an authenticated Speech client. maxWait bounds
// the total time spent waiting on one operation; pollInterval seeds the
// backoff between polls. Non-positive values fall back to defaults of ten
// minutes and five seconds.
func NewGoogleRecognizer(client *apiv1.Client, maxWait time.Duration, pollInterval time.Duration) *GoogleRecognizer {
	if maxWait <= 0 {
		maxWait = 10 * time.Minute
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &GoogleRecognizer{
		client:       client,
		maxWait:      maxWait,
		pollInterval: pollInterval,
	}
}

// Recognize submits the request with automatic punctuation and speaker
// diarization enabled, then blocks polling the operation. Exhausting the
// wait budget returns an error wrapping ErrDeadlineExceeded so callers can
// distinguish it from service failures.
func (g *GoogleRecognizer) Recognize(ctx context.Context, req Request) (*Transcript, error) {
	op, err := g.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_FLAC,
			SampleRateHertz:            req.SampleRateHertz,
			LanguageCode:               req.LanguageCode,
			EnableAutomaticPunctuation: true,
			DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
				EnableSpeakerDiarization: true,
				MinSpeakerCount:          req.MinSpeakerCount,
				MaxSpeakerCount:          req.MaxSpeakerCount,
			},
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.URI},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start recognition for %s: %w", req.URI, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.pollInterval
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // the context deadline bounds the wait

	var resp *speechpb.LongRunningRecognizeResponse
	err = backoff.Retry(func() error {
		r, pollErr := op.Poll(waitCtx)
		if pollErr != nil {
			if waitCtx.Err() != nil {
				return backoff.Permanent(waitCtx.Err())
			}
			return backoff.Permanent(pollErr)
		}
		if !op.Done() {
			return errOperationPending
		}
		resp = r
		return nil
	}, backoff.WithContext(policy, waitCtx))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("operation %s for %s: %w", op.Name(), req.URI, ErrDeadlineExceeded)
		}
		return nil, fmt.Errorf("failed waiting on recognition of %s: %w", req.URI, err)
	}

	return transcriptFromResponse(resp), nil
}

func transcriptFromResponse(resp *speechpb.LongRunningRecognizeResponse) *Transcript {
	out := &Transcript{}
	if resp == nil {
		return out
	}
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		best := alts[0]
		seg := Segment{
			Text:       best.GetTranscript(),
			Confidence: best.GetConfidence(),
		}
		for _, w := range best.GetWords() {
			seg.Words = append(seg.Words, Word{
				Text:       w.GetWord(),
				SpeakerTag: int(w.GetSpeakerTag()),
			})
		}
		out.Segments = append(out.Segments, seg)
	}
	return out
}
