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
// Responsibility (COR) pattern's Command interface. This file defines a
// command for downloading the triggering video from Google Cloud Storage
// (GCS) to a local temporary file so a local tool (ffmpeg) can read it.
//
// Logic Flow:
//
//  1. Receives the `model.CallArtifacts` for the review from the context.
//  2. Creates a reader for the video object and a new local temporary file.
//  3. Streams the content from GCS into the temporary file with `io.Copy`,
//     so the video is never held in memory whole.
//  4. Records the temporary file path on the artifacts for the extractor,
//     and registers it with the context so it is removed when the workflow
//     finishes, successfully or not.
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

// VideoDownload is a command that downloads the uploaded call recording to
// the local filesystem.
type VideoDownload struct {
	cor.BaseCommand
	client         *storage.Client // The GCS client for reading the video object.
	tempFilePrefix string          // Prefix for the local temporary file name.
}

// NewVideoDownload is the constructor for creating a new VideoDownload
// command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - client: An initialized *storage.Client.
//   - tempFilePrefix: A string prefix for the temporary file's name.
//
// Outputs:
//   - *VideoDownload: A pointer to the newly instantiated command.
func NewVideoDownload(name string, client *storage.Client, tempFilePrefix string) *VideoDownload {
	return &VideoDownload{
		BaseCommand:    *cor.NewBaseCommand(name),
		client:         client,
		tempFilePrefix: tempFilePrefix,
	}
}

// Execute streams the video object to a local temporary file.
func (c *VideoDownload) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	obj := c.client.Bucket(artifacts.Bucket).Object(artifacts.VideoObject)
	reader, err := obj.NewReader(context.GetContext())
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create GCS reader for gs://%s/%s: %w", artifacts.Bucket, artifacts.VideoObject, err))
		return
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "error", err)
		}
	}(reader)

	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create temp file: %w", err))
		return
	}
	// Track the scratch file immediately so it is cleaned up even when the
	// copy below fails partway.
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	_ = tempFile.Close()
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to download gs://%s/%s after %d bytes: %w", artifacts.Bucket, artifacts.VideoObject, written, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("downloaded call recording",
		"object", artifacts.VideoObject,
		"localPath", tempFile.Name(),
		"bytes", written)

	artifacts.LocalVideoPath = tempFile.Name()
	context.Add(c.GetOutputParam(), artifacts)
}
