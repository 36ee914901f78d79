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

// Package main contains the logic for starting the Pub/Sub listener that
// drives the call review pipeline. GCS publishes an object-finalize
// notification when a recording lands in the input bucket; the listener
// hands each notification to the pipeline and only acknowledges the message
// when the whole review succeeds, so failures are redelivered and retried
// end to end.
//
// Functions:
//   - SetupListeners: Attaches the call review workflow to the configured
//     subscription and starts listening.
package main

import (
	"context"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/workflow"
)

// CallUploadsListener is the logical name of the trigger subscription in the
// configuration's topic_subscriptions table.
const CallUploadsListener = "CallUploads"

// CoachModelName is the logical name of the agent model used for the
// coaching analysis, as configured under agent_models.
const CoachModelName = "coach"

// SetupListeners builds the call review pipeline and starts the background
// Pub/Sub listener that feeds it.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	callReview := workflow.NewCallReviewPipeline(config, cloudClients, CoachModelName)
	cloudClients.PubSubListeners[CallUploadsListener].SetCommand(callReview)
	cloudClients.PubSubListeners[CallUploadsListener].Listen(ctx)
}
