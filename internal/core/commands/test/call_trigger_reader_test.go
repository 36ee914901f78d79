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
// file covers the trigger reader: notification parsing, artifact key
// derivation, and the skip rules for non-video objects and foreign buckets.
package commands_test

import (
	"context"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/commands"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	test "github.com/callcoach/gcp-go-call-coach/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInputBucket = "call-coach-input-videos"

func newTriggerContext(message string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, message)
	return chainCtx
}

func TestTriggerReaderSeedsWorkflowState(t *testing.T) {
	reader := commands.NewCallTriggerReader("call-trigger-reader", testInputBucket)
	chainCtx := newTriggerContext(test.GetTestCallUploadMessageText())

	reader.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	artifacts, ok := chainCtx.Get(cor.CtxOut).(*model.CallArtifacts)
	require.True(t, ok)
	assert.Equal(t, "call1.mp4", artifacts.VideoObject)
	assert.Equal(t, testInputBucket, artifacts.Bucket)
	assert.Equal(t, "audio/call1.flac", artifacts.AudioKey)
	assert.Equal(t, "transcripts/call1.txt", artifacts.TranscriptKey)
	assert.Equal(t, "analysis/call1_analysis.txt", artifacts.AnalysisKey)

	// The same state is reachable under the well-known key for commands
	// that run later in the chain.
	assert.Same(t, artifacts, chainCtx.Get(cloud.GetCallObjectName()))
}

func TestTriggerReaderSkipsNonVideoObjects(t *testing.T) {
	reader := commands.NewCallTriggerReader("call-trigger-reader", testInputBucket)
	chainCtx := newTriggerContext(test.GetTestNonVideoMessageText())

	reader.Execute(chainCtx)

	// A skip is a clean no-op: no error (so the message is acked) and no
	// output (so downstream commands never run).
	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestTriggerReaderSkipsForeignBuckets(t *testing.T) {
	reader := commands.NewCallTriggerReader("call-trigger-reader", testInputBucket)
	chainCtx := newTriggerContext(test.GetTestForeignBucketMessageText())

	reader.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestTriggerReaderRejectsMalformedNotification(t *testing.T) {
	reader := commands.NewCallTriggerReader("call-trigger-reader", testInputBucket)
	chainCtx := newTriggerContext("{not json")

	reader.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Contains(t, chainCtx.GetErrors(), "call-trigger-reader")
}
