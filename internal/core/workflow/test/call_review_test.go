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

// Package workflow_test contains tests for the call review workflow. The
// full pipeline needs live storage, so these tests exercise two slices of
// it: the skip path through the assembled pipeline (which must finish
// cleanly without touching any cloud service), and the processing chain
// over fake collaborators from trigger to finished analysis.
package workflow_test

import (
	"context"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/commands"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"github.com/callcoach/gcp-go-call-coach/internal/core/workflow"
	"github.com/callcoach/gcp-go-call-coach/internal/speech"
	test "github.com/callcoach/gcp-go-call-coach/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Name for the telemetry scope shared by the tests in this package.
const tName = "github.com/callcoach/gcp-go-call-coach/tests/workflow"

var logger = otelslog.NewLogger(tName)

type staticExtractor struct{ path string }

func (s *staticExtractor) Extract(_ context.Context, _ string) (string, error) {
	return s.path, nil
}

type staticRecognizer struct{ transcript *speech.Transcript }

func (s *staticRecognizer) Recognize(_ context.Context, _ speech.Request) (*speech.Transcript, error) {
	return s.transcript, nil
}

type staticGenerator struct{ response string }

func (s *staticGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return s.response, nil
}

func testConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.GoogleProjectId = "test-project"
	config.Storage.InputVideoBucket = "call-coach-input-videos"
	config.Storage.OutputBucket = "call-coach-artifacts"
	config.Recognition = cloud.Recognition{
		LanguageCode:    "en-IN",
		SampleRateHertz: 16000,
		MinSpeakerCount: 1,
		MaxSpeakerCount: 2,
		MaxWaitSeconds:  600,
	}
	return config
}

func newTriggerContext(message string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, message)
	return chainCtx
}

// A non-video upload must travel the whole assembled pipeline as a clean
// no-op: no command after the trigger reader runs, no error is recorded,
// and the trigger message would be acknowledged. The nil clients prove no
// cloud service is touched on this path.
func TestPipelineSkipsNonVideoUploadCleanly(t *testing.T) {
	pipeline := workflow.NewCallReviewPipelineWithCollaborators(
		testConfig(), nil, nil,
		&staticExtractor{}, &staticRecognizer{}, &staticGenerator{})

	chainCtx := newTriggerContext(test.GetTestNonVideoMessageText())
	pipeline.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cloud.GetCallObjectName()))
}

func TestPipelineSkipsForeignBucketCleanly(t *testing.T) {
	pipeline := workflow.NewCallReviewPipelineWithCollaborators(
		testConfig(), nil, nil,
		&staticExtractor{}, &staticRecognizer{}, &staticGenerator{})

	chainCtx := newTriggerContext(test.GetTestForeignBucketMessageText())
	pipeline.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cloud.GetCallObjectName()))
}

// TestReviewChainOverFakes runs the trigger, transcription, and analysis
// stages as one chain over fake collaborators and verifies the state that
// flows out: derived keys, speaker-labeled transcript, and the coaching
// review.
func TestReviewChainOverFakes(t *testing.T) {
	config := testConfig()
	recognizer := &staticRecognizer{
		transcript: &speech.Transcript{
			Segments: []speech.Segment{
				{Words: []speech.Word{
					{Text: "hello", SpeakerTag: 1},
					{Text: "hi", SpeakerTag: 2},
				}},
			},
		},
	}
	generator := &staticGenerator{response: "good rapport, never asked for the close"}

	analysis, err := commands.NewAnalysisCreate("analysis-create", generator, "")
	require.NoError(t, err)

	chain := cor.NewBaseChain("call-review-chain")
	chain.AddCommand(commands.NewCallTriggerReader("call-trigger-reader", config.Storage.InputVideoBucket))
	chain.AddCommand(commands.NewTranscribe("transcribe", recognizer, config.Storage.OutputBucket, config.Recognition))
	chain.AddCommand(analysis)

	chainCtx := newTriggerContext(test.GetTestCallUploadMessageText())
	chain.Execute(chainCtx)
	logger.InfoContext(chainCtx.GetContext(), "review chain complete")

	assert.False(t, chainCtx.HasErrors())

	artifacts, ok := chainCtx.Get(cloud.GetCallObjectName()).(*model.CallArtifacts)
	require.True(t, ok)
	assert.Equal(t, "audio/call1.flac", artifacts.AudioKey)
	assert.Equal(t, "Speaker 1: hello\nSpeaker 2: hi", artifacts.Transcript)
	assert.Equal(t, "good rapport, never asked for the close", artifacts.Analysis)
}
