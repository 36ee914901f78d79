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
// initial command in the call review workflow.
//
// Logic Flow:
// This command is the entry point for the workflow triggered by a recording
// being uploaded to Google Cloud Storage (GCS). GCS publishes a notification
// message to a Pub/Sub topic when a new object is finalized; this command
// parses that message and decides whether the object is a reviewable call.
//
//  1. The command receives the raw Pub/Sub message data as a JSON string from
//     the context.
//  2. It unmarshals the JSON into a `cloud.GCSPubSubNotification` struct.
//  3. If the notification is for a different bucket than the configured input
//     bucket, or the object is not a video, the command logs the skip and
//     produces no output. Downstream commands then find no input and the
//     chain ends cleanly, so the message is acknowledged without processing.
//  4. Otherwise it derives the deterministic artifact keys from the object
//     name and places a `model.CallArtifacts` into the context, both under a
//     well-known key and as the output for the next command.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
)

// CallTriggerReader parses a GCS Pub/Sub notification and, when the object
// is a video in the watched bucket, seeds the workflow state.
type CallTriggerReader struct {
	cor.BaseCommand
	inputBucket string // Only notifications for this bucket start a review.
}

// NewCallTriggerReader is the constructor for the CallTriggerReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - inputBucket: The bucket whose uploads trigger reviews.
//
// Outputs:
//   - *CallTriggerReader: A pointer to the newly instantiated command.
func NewCallTriggerReader(name string, inputBucket string) *CallTriggerReader {
	return &CallTriggerReader{BaseCommand: *cor.NewBaseCommand(name), inputBucket: inputBucket}
}

// Execute parses the notification and decides whether to start a review.
func (c *CallTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var notification cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(in), &notification)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	// Not every notification is work: the subscription may see objects from
	// other buckets, and the input bucket may receive non-video uploads.
	// Those are skipped, not failed, so the message is acknowledged and
	// never redelivered.
	if notification.Bucket != c.inputBucket {
		slog.Info("ignoring notification for foreign bucket",
			"bucket", notification.Bucket,
			"object", notification.Name)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}
	if !strings.HasPrefix(notification.ContentType, "video/") {
		slog.Info("ignoring non-video object",
			"object", notification.Name,
			"contentType", notification.ContentType)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		return
	}

	keys := cloud.DeriveArtifactKeys(notification.Name)
	artifacts := &model.CallArtifacts{
		Bucket:        notification.Bucket,
		VideoObject:   notification.Name,
		MIMEType:      notification.ContentType,
		Base:          keys.Base,
		AudioKey:      keys.Audio,
		TranscriptKey: keys.Transcript,
		AnalysisKey:   keys.Analysis,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	// Store the workflow state under a well-known key so that commands later
	// in the chain can reach it regardless of what the piped input holds.
	context.Add(cloud.GetCallObjectName(), artifacts)
	context.Add(c.GetOutputParam(), artifacts)
}
