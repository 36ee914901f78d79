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

// Package cloud provides components for interacting with Google Cloud
// services. This file wraps the Generative AI client with rate limiting and
// retry, and distinguishes content-policy rejections from transport errors.
//
// Vertex AI enforces per-minute request quotas; the wrapper keeps the
// pipeline under them and retries transient failures. A response that comes
// back empty or safety-blocked is not a transport failure and is never
// retried: it surfaces as ErrContentFiltered so the caller can log it as a
// policy rejection.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrContentFiltered reports that the generative model returned no usable
// text because the prompt or the candidate response was blocked by a content
// policy. Callers must treat it as terminal for the invocation, distinct
// from transport errors: redelivering the same transcript produces the same
// rejection.
var ErrContentFiltered = errors.New("generation blocked by content filter or returned empty response")

// maxGenerateRetries bounds the transport-level retries inside the wrapper.
const maxGenerateRetries = 3

// QuotaAwareGenerativeAIModel decorates a configured Gemini model with a
// token-bucket rate limiter and bounded retry on transport failure.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation settings applied to every request.
	ModelName               string                       // The model identifier, e.g. "gemini-2.5-pro".
	ModelHandle             *genai.Models                // Handle into the genai client's model surface.
	RateLimit               *rate.Limiter                // Limits request frequency to stay inside quota.
}

// NewQuotaAwareModel wraps the given generation config and model handle with
// a limiter allowing requestsPerSecond calls.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, models *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             models,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent submits content to the model, waiting for a rate-limiter
// token first and retrying transient transport failures with a fixed pause.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	for attempt := 0; attempt <= maxGenerateRetries; attempt++ {
		if err = q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Give the service time to recover before the next attempt.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Second):
		}
	}
	return nil, fmt.Errorf("generation failed after %d retries: %w", maxGenerateRetries, err)
}

// GenerateText submits a single text prompt and returns the concatenated
// text of the response candidates. It returns ErrContentFiltered when the
// prompt was blocked, the finish reason indicates a safety stop, or the
// model produced no text at all.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := q.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked (%s): %w", resp.PromptFeedback.BlockReason, ErrContentFiltered)
	}

	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonSafety ||
			candidate.FinishReason == genai.FinishReasonProhibitedContent {
			return "", fmt.Errorf("candidate stopped (%s): %w", candidate.FinishReason, ErrContentFiltered)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrContentFiltered
	}
	return out.String(), nil
}
