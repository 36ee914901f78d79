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
// command that uploads the extracted audio file to the output bucket.
//
// Logic Flow:
//
//  1. Receives the `model.CallArtifacts` holding the local audio path.
//  2. Opens the local file and streams it to the derived audio key in the
//     output bucket with `io.Copy`.
//  3. The destination key is deterministic, so a redelivered trigger simply
//     overwrites the previous upload.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
)

// AudioUpload is a command that persists the extracted FLAC audio to the
// output bucket, where the transcription service reads it by URI.
type AudioUpload struct {
	cor.BaseCommand
	client *storage.Client
	bucket string // The destination (output) bucket.
}

// NewAudioUpload is the constructor for creating a new AudioUpload command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - client: An initialized *storage.Client.
//   - bucket: The name of the output bucket.
//
// Outputs:
//   - *AudioUpload: A pointer to the newly instantiated command.
func NewAudioUpload(name string, client *storage.Client, bucket string) *AudioUpload {
	return &AudioUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

// Execute streams the local audio file to the output bucket.
func (c *AudioUpload) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	dat, err := os.Open(artifacts.LocalAudioPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open audio file %s: %w", artifacts.LocalAudioPath, err))
		return
	}
	defer func(dat *os.File) {
		if err := dat.Close(); err != nil {
			slog.Warn("failed to close audio file", "error", err)
		}
	}(dat)

	writer := c.client.Bucket(c.bucket).Object(artifacts.AudioKey).NewWriter(context.GetContext())
	writer.ContentType = "audio/flac"

	if written, err := io.Copy(writer, dat); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to upload audio after %d bytes: %w", written, err))
		return
	}
	// Close finalizes the object; an upload is not durable until it returns.
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize gs://%s/%s: %w", c.bucket, artifacts.AudioKey, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("uploaded extracted audio",
		"object", artifacts.VideoObject,
		"audioKey", artifacts.AudioKey)
	context.Add(c.GetOutputParam(), artifacts)
}
