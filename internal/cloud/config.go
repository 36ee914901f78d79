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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, along with models and clients for the Google Cloud
// services the pipeline talks to.
//
// Structs:
//   - Recognition: Speech-to-Text request settings (language, sample rate,
//     diarization bounds, wait budget).
//   - Storage: input and output bucket names.
//   - BigQueryDataSource: dataset/table for persisted call records.
//   - PromptTemplates: prompt template for the coaching analysis.
//   - VertexAiLLMModel: settings for a Gemini model used by the pipeline.
//   - TopicSubscription: a single Pub/Sub subscription.
//   - Config: the top-level aggregate.
package cloud

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultSafetySettings defines the content safety thresholds applied to the
// coaching model. Sales call recordings are trusted internal input, so every
// category is set to block-none; a response blocked despite these settings is
// surfaced as ErrContentFiltered rather than retried.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Recognition holds the Speech-to-Text request settings. The diarization
// bounds are fixed at one to two speakers: a sales call has a seller and a
// prospect, and the transcript formatter relies on the cap.
type Recognition struct {
	LanguageCode        string `toml:"language_code"`         // BCP-47 language code, e.g. "en-IN".
	SampleRateHertz     int32  `toml:"sample_rate_hertz"`     // Sample rate of the extracted audio, e.g. 16000.
	MinSpeakerCount     int32  `toml:"min_speaker_count"`     // Lower diarization bound, normally 1.
	MaxSpeakerCount     int32  `toml:"max_speaker_count"`     // Upper diarization bound, normally 2.
	MaxWaitSeconds      int    `toml:"max_wait_seconds"`      // Budget for the long-running recognize operation.
	PollIntervalSeconds int    `toml:"poll_interval_seconds"` // Initial interval between operation polls.
}

// Storage holds the bucket names the pipeline reads from and writes to.
type Storage struct {
	InputVideoBucket string `toml:"input_video_bucket"` // Bucket whose object-finalize events trigger the pipeline.
	OutputBucket     string `toml:"output_bucket"`      // Bucket receiving audio, transcript, and analysis artifacts.
}

// BigQueryDataSource holds the dataset and table for the call review records
// written at the end of a successful pipeline run. An empty dataset name
// disables persistence.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`    // The BigQuery dataset name.
	CallTable   string `toml:"call_table"` // The table holding call review records.
}

// PromptTemplates holds the text templates for prompts sent to the coaching
// model. The analysis template receives a single TRANSCRIPT parameter; when
// it is empty, the built-in coaching persona and framework are used instead.
type PromptTemplates struct {
	AnalysisPrompt string `toml:"analysis"`
}

// VertexAiLLMModel holds the settings for a Gemini model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The model identifier, e.g. "gemini-2.5-pro".
	SystemInstructions string  `toml:"system_instructions"` // System instructions applied to every request.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // Response MIME type, e.g. "text/plain".
	RateLimit          int     `toml:"rate_limit"`    // Requests per second allowed through the quota wrapper.
}

// TopicSubscription holds a single Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The subscription ID.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // Dead-letter topic, if configured.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Ack deadline for the subscription.
}

// Config is the overall application configuration, loaded from TOML files.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`                         // Service name used in telemetry.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location for Vertex AI.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used to sign artifact URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Recognition        Recognition                  `toml:"recognition"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
}

// NewConfig creates a new Config with its map fields initialized so the TOML
// decoder can populate them without nil map panics.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}

// Validate checks that every value the pipeline cannot run without is
// present. A missing required value is a startup-fatal condition: the caller
// is expected to log the error and exit rather than serve traffic that can
// only fail per-event.
func (c *Config) Validate() error {
	var missing []string
	if c.Application.GoogleProjectId == "" {
		missing = append(missing, "application.google_project_id")
	}
	if c.Storage.InputVideoBucket == "" {
		missing = append(missing, "storage.input_video_bucket")
	}
	if c.Storage.OutputBucket == "" {
		missing = append(missing, "storage.output_bucket")
	}
	if c.Recognition.LanguageCode == "" {
		missing = append(missing, "recognition.language_code")
	}
	if len(c.AgentModels) == 0 {
		missing = append(missing, "agent_models")
	}
	for key, m := range c.AgentModels {
		if m.Model == "" {
			missing = append(missing, fmt.Sprintf("agent_models.%s.model", key))
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration values: " + strings.Join(missing, ", "))
	}
	return nil
}
