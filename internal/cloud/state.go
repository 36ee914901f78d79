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
// services. This file initializes and holds every client the pipeline needs.
// Clients are constructed once at startup and injected into commands and
// services; nothing in the pipeline reaches for a global client, which keeps
// the stages swappable with fakes in tests.
package cloud

import (
	"context"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is the container for every external service client used by
// the application. It is built once in NewCloudServiceClients and shared by
// the HTTP server, the Pub/Sub listeners, and the pipeline commands.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Google Cloud Storage: artifact reads and writes.
	PubsubClient    *pubsub.Client                          // Pub/Sub: trigger subscriptions.
	SpeechClient    *speech.Client                          // Speech-to-Text: long-running transcription.
	GenAIClient     *genai.Client                           // Vertex AI Gemini: coaching analysis.
	BigQueryClient  *bigquery.Client                        // BigQuery: call record persistence.
	IAMClient       *credentials.IamCredentialsClient       // IAM credentials: signing artifact URLs.
	PubSubListeners map[string]*PubSubListener              // Active listeners keyed by logical name from config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Configured Gemini models keyed by logical name.
}

// Close releases all client connections. Connections are normally torn down
// with the root context; this gives tests and controlled shutdowns an
// explicit path.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.SpeechClient.Close()
	_ = c.BigQueryClient.Close()
	_ = c.IAMClient.Close()
}

// NewCloudServiceClients builds every Google Cloud client the application
// needs from the given configuration. Any client that fails to initialize
// fails the whole startup: the pipeline cannot limp along without one of its
// collaborators.
func NewCloudServiceClients(ctx context.Context, config *Config) (clients *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	spc, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	// Listeners are created without a command; the workflow is attached when
	// the server wires its pipelines.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	// Each configured agent model is wrapped with the quota-aware decorator
	// so every caller shares the same rate limit for that model.
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey := range config.AgentModels {
		values := config.AgentModels[amKey]
		model := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(model, values.Model, gc.Models, values.RateLimit)
	}

	clients = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		SpeechClient:    spc,
		GenAIClient:     gc,
		BigQueryClient:  bc,
		IAMClient:       ic,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}

	return clients, nil
}
