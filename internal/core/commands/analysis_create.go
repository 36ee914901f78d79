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
// command that produces the sales-coaching analysis of a call transcript.
//
// Logic Flow:
//
//  1. Receives the `model.CallArtifacts` holding the (possibly empty)
//     transcript.
//  2. Renders the coaching prompt from a text template. An empty transcript
//     is replaced with an explicit marker so the coach receives an honest
//     statement rather than a blank document.
//  3. Sends the prompt through the TextGenerator. A response blocked by the
//     content filter surfaces as cloud.ErrContentFiltered and is logged
//     distinctly, since redelivery of the same transcript will be blocked
//     again.
package commands

import (
	gocontext "context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
)

// TextGenerator is the single capability this command needs from a language
// model. cloud.QuotaAwareGenerativeAIModel satisfies it; tests supply fakes.
type TextGenerator interface {
	GenerateText(ctx gocontext.Context, prompt string) (string, error)
}

// EmptyTranscriptMarker is what the coaching model sees in place of a
// transcript when no speech was recognized in the recording.
const EmptyTranscriptMarker = "(no speech detected in this recording)"

// DefaultAnalysisPrompt is the coaching instruction used when no template is
// configured. It walks the reviewer through the belief stages a seller moves
// a prospect through on a high-ticket sales call.
const DefaultAnalysisPrompt = `Analyze the following video transcript for a high ticket digital item sale for flaws in the sales process. The purpose of the seller here is to move the prospect through the key stages/beliefs to help them make a sales decision:
Pain - Clarify their main problem.
Doubt - Why they haven't solved it on their own.
Cost - The hidden cost of staying stuck.
Desire - Their ultimate desired outcome.
Support - Assurance they'll get necessary help.
Handle Partner Indecision - Ask if they have support of their partners or parents so that the prospect can't leave the call at the end saying they need to consult them and get back without making a commitment on the call itself.
Trust - Confidence in you and your solution.

Provide a concise summary, identify the main topics discussed, and list any key action items or conclusions. Try to infer the roles of the prospect and the salesperson and give actionable feedback with specific parts and what did the seller miss or could improve during the conversation.

Transcript:
{{ .TRANSCRIPT }}`

// AnalysisCreate is a command that asks the coaching model to review a call
// transcript.
type AnalysisCreate struct {
	cor.BaseCommand
	generator TextGenerator
	template  *template.Template
}

// NewAnalysisCreate is the constructor for the AnalysisCreate command. The
// promptTemplate parameter comes from configuration; when empty, the
// built-in coaching prompt is used. The template must reference the
// TRANSCRIPT parameter.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generator: The text generator, normally a cloud.QuotaAwareGenerativeAIModel.
//   - promptTemplate: Optional template text overriding DefaultAnalysisPrompt.
//
// Outputs:
//   - *AnalysisCreate: A pointer to the newly instantiated command.
//   - error: Non-nil when the template does not parse.
func NewAnalysisCreate(name string, generator TextGenerator, promptTemplate string) (*AnalysisCreate, error) {
	text := promptTemplate
	if strings.TrimSpace(text) == "" {
		text = DefaultAnalysisPrompt
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis prompt template: %w", err)
	}
	return &AnalysisCreate{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		template:    tmpl,
	}, nil
}

// Execute renders the prompt and stores the model's review on the workflow
// state.
func (c *AnalysisCreate) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	transcript := artifacts.Transcript
	if strings.TrimSpace(transcript) == "" {
		transcript = EmptyTranscriptMarker
	}

	var prompt strings.Builder
	err := c.template.Execute(&prompt, map[string]string{"TRANSCRIPT": transcript})
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to render analysis prompt: %w", err))
		return
	}

	analysis, err := c.generator.GenerateText(context.GetContext(), prompt.String())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		if errors.Is(err, cloud.ErrContentFiltered) {
			// Deterministic for a given transcript; retries will not help.
			slog.Error("coaching analysis blocked by content filter",
				"object", artifacts.VideoObject)
		}
		context.AddError(c.GetName(), fmt.Errorf("analysis of %s failed: %w", artifacts.VideoObject, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("created coaching analysis",
		"object", artifacts.VideoObject,
		"characters", len(analysis))

	artifacts.Analysis = analysis
	context.Add(c.GetOutputParam(), artifacts)
}
