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

// Package cloud_test contains unit tests for the cloud package. This file
// covers configuration validation: a configuration missing required values
// must be rejected at startup rather than failing per-event at runtime.
package cloud_test

import (
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/stretchr/testify/assert"
)

func validConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.GoogleProjectId = "test-project"
	config.Storage.InputVideoBucket = "call-coach-input-videos"
	config.Storage.OutputBucket = "call-coach-artifacts"
	config.Recognition.LanguageCode = "en-IN"
	config.AgentModels["coach"] = cloud.VertexAiLLMModel{Model: "gemini-2.5-pro"}
	return config
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingProject(t *testing.T) {
	config := validConfig()
	config.Application.GoogleProjectId = ""
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "application.google_project_id")
}

func TestValidateRejectsMissingBuckets(t *testing.T) {
	config := validConfig()
	config.Storage.InputVideoBucket = ""
	config.Storage.OutputBucket = ""
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage.input_video_bucket")
	assert.Contains(t, err.Error(), "storage.output_bucket")
}

func TestValidateRejectsModelWithoutName(t *testing.T) {
	config := validConfig()
	config.AgentModels["coach"] = cloud.VertexAiLLMModel{}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "agent_models.coach.model")
}

func TestValidateListsEveryMissingValue(t *testing.T) {
	config := cloud.NewConfig()
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "recognition.language_code")
	assert.Contains(t, err.Error(), "agent_models")
}
