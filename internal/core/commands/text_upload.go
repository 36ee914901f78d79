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
// command for writing a produced text artifact (the transcript or the
// coaching analysis) to its deterministic key in the output bucket. The two
// uploads differ only in which field they read and which key they write, so
// a selector function parameterizes one command type instead of duplicating
// the upload logic.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
)

// TextUpload is a command that writes one text artifact of the review to
// the output bucket.
type TextUpload struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
	pick   func(a *model.CallArtifacts) (key string, body string)
}

// NewTranscriptUpload returns a TextUpload that writes the transcript to
// its derived key. An empty transcript still produces the object, so the
// set of artifacts for a processed call is always complete.
func NewTranscriptUpload(name string, client *storage.Client, bucket string) *TextUpload {
	return &TextUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		bucket:      bucket,
		pick: func(a *model.CallArtifacts) (string, string) {
			return a.TranscriptKey, a.Transcript
		},
	}
}

// NewAnalysisUpload returns a TextUpload that writes the coaching analysis
// to its derived key.
func NewAnalysisUpload(name string, client *storage.Client, bucket string) *TextUpload {
	return &TextUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		bucket:      bucket,
		pick: func(a *model.CallArtifacts) (string, string) {
			return a.AnalysisKey, a.Analysis
		},
	}
}

// Execute writes the selected text to its object key. The write overwrites
// any previous generation of the object, which is what makes redelivered
// triggers converge on the same result.
func (c *TextUpload) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)
	key, body := c.pick(artifacts)

	writer := c.client.Bucket(c.bucket).Object(key).NewWriter(context.GetContext())
	writer.ContentType = "text/plain; charset=utf-8"

	if _, err := writer.Write([]byte(body)); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to write gs://%s/%s: %w", c.bucket, key, err))
		return
	}
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize gs://%s/%s: %w", c.bucket, key, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("uploaded text artifact",
		"object", artifacts.VideoObject,
		"key", key,
		"bytes", len(body))
	context.Add(c.GetOutputParam(), artifacts)
}
