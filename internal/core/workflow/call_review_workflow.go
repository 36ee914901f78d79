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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the call review workflow: uploaded recording in, extracted audio,
// speaker-labeled transcript, and coaching analysis out.
package workflow

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/commands"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/media"
	"github.com/callcoach/gcp-go-call-coach/internal/speech"
)

// CallReviewWorkflow orchestrates the full review of one uploaded sales
// call. It is structured as a Chain of Responsibility (cor.Chain) whose
// commands run strictly in order; the first failure stops the chain, the
// trigger message stays unacknowledged, and redelivery reruns the whole
// review. Every artifact key is derived deterministically from the trigger,
// so a rerun overwrites its own partial output instead of branching.
//
// The workflow is triggered by a Pub/Sub notification indicating that a new
// recording was finalized in the input bucket.
type CallReviewWorkflow struct {
	cor.BaseCommand
	config         *cloud.Config
	storageClient  *storage.Client
	bigqueryClient *bigquery.Client
	recognizer     speech.Recognizer
	extractor      media.Extractor
	generator      commands.TextGenerator
	chain          cor.Chain
}

// Execute runs the review by invoking the underlying chain.
func (w *CallReviewWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the ordered command sequence for the review. Each
// command is an atomic unit of work piping the shared call state to the
// next.
func (w *CallReviewWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Parse the trigger notification, ignore non-video objects and
	// foreign buckets, and derive the deterministic artifact keys.
	out.AddCommand(commands.NewCallTriggerReader("call-trigger-reader", w.config.Storage.InputVideoBucket))

	// Step 2: Download the recording to local scratch space for ffmpeg.
	out.AddCommand(commands.NewVideoDownload("video-download", w.storageClient, "call-video-"))

	// Step 3: Extract the audio track as lossless 16 kHz mono FLAC.
	out.AddCommand(commands.NewAudioExtract("audio-extract", w.extractor))

	// Step 4: Upload the audio to the output bucket. The transcription
	// service reads it from there by URI, so this happens before step 5.
	out.AddCommand(commands.NewAudioUpload("audio-upload", w.storageClient, w.config.Storage.OutputBucket))

	// Step 5: Transcribe with speaker diarization, bounded by the configured
	// wait budget.
	out.AddCommand(commands.NewTranscribe("transcribe", w.recognizer, w.config.Storage.OutputBucket, w.config.Recognition))

	// Step 6: Persist the transcript, even when it is empty, so the artifact
	// set for a reviewed call is always complete.
	out.AddCommand(commands.NewTranscriptUpload("transcript-upload", w.storageClient, w.config.Storage.OutputBucket))

	// Step 7: Ask the coaching model to review the transcript.
	analysis, err := commands.NewAnalysisCreate("analysis-create", w.generator, w.config.PromptTemplates.AnalysisPrompt)
	if err != nil {
		panic(err) // The app cannot run with an invalid prompt template.
	}
	out.AddCommand(analysis)

	// Step 8: Persist the coaching analysis.
	out.AddCommand(commands.NewAnalysisUpload("analysis-upload", w.storageClient, w.config.Storage.OutputBucket))

	// Step 9: Record the completed review in BigQuery for the dashboard.
	out.AddCommand(commands.NewCallRecordPersist("call-record-persist", w.bigqueryClient, w.config.BigQueryDataSource, w.config.Storage.OutputBucket))

	w.chain = out
}

// NewCallReviewPipeline is the constructor for the CallReviewWorkflow. It
// wires the production collaborators: ffmpeg for extraction, the
// Speech-to-Text long-running API for transcription, and the configured
// quota-aware Gemini model for the analysis.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//   - agentModelName: The agent model config to use for coaching (e.g. "coach").
//
// Returns:
//   - A pointer to a newly created and fully initialized CallReviewWorkflow.
func NewCallReviewPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *CallReviewWorkflow {

	recognizer := speech.NewGoogleRecognizer(
		serviceClients.SpeechClient,
		time.Duration(config.Recognition.MaxWaitSeconds)*time.Second,
		time.Duration(config.Recognition.PollIntervalSeconds)*time.Second)

	pipeline := &CallReviewWorkflow{
		BaseCommand:    *cor.NewBaseCommand("call-review-pipeline"),
		config:         config,
		storageClient:  serviceClients.StorageClient,
		bigqueryClient: serviceClients.BigQueryClient,
		recognizer:     recognizer,
		extractor:      media.NewFFmpegExtractor(""),
		generator:      serviceClients.AgentModels[agentModelName],
	}
	pipeline.initializeChain()
	return pipeline
}

// NewCallReviewPipelineWithCollaborators builds the same chain with explicit
// extractor, recognizer, and generator implementations. Tests use it to run
// the full review over fakes.
func NewCallReviewPipelineWithCollaborators(
	config *cloud.Config,
	storageClient *storage.Client,
	bigqueryClient *bigquery.Client,
	extractor media.Extractor,
	recognizer speech.Recognizer,
	generator commands.TextGenerator) *CallReviewWorkflow {

	pipeline := &CallReviewWorkflow{
		BaseCommand:    *cor.NewBaseCommand("call-review-pipeline"),
		config:         config,
		storageClient:  storageClient,
		bigqueryClient: bigqueryClient,
		recognizer:     recognizer,
		extractor:      extractor,
		generator:      generator,
	}
	pipeline.initializeChain()
	return pipeline
}
