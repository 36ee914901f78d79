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
// final command of the review workflow: it writes a summary row for the
// completed review to BigQuery so the dashboard can list recent calls.
// Persistence is optional; an empty dataset name disables it and the
// command passes the workflow state through untouched.
package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"github.com/google/uuid"
)

// CallRecordPersist is a command that records a completed call review in
// BigQuery.
type CallRecordPersist struct {
	cor.BaseCommand
	client     *bigquery.Client
	dataSource cloud.BigQueryDataSource
	bucket     string // The output bucket, used to render artifact URIs.
}

// NewCallRecordPersist is the constructor for the CallRecordPersist command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: An initialized *bigquery.Client; may be nil when persistence is disabled.
//   - dataSource: The dataset and table to write to.
//   - bucket: The output bucket name.
//
// Outputs:
//   - *CallRecordPersist: A pointer to the newly instantiated command.
func NewCallRecordPersist(name string, client *bigquery.Client, dataSource cloud.BigQueryDataSource, bucket string) *CallRecordPersist {
	return &CallRecordPersist{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		dataSource:  dataSource,
		bucket:      bucket,
	}
}

// Execute inserts the call record, or no-ops when persistence is disabled.
func (c *CallRecordPersist) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(*model.CallArtifacts)

	if c.dataSource.DatasetName == "" || c.client == nil {
		slog.Debug("call record persistence disabled", "object", artifacts.VideoObject)
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), artifacts)
		return
	}

	// Reuse the listener's invocation ID as the record ID when present so a
	// record can be joined back to its traces and logs.
	id, _ := context.Get(cloud.GetInvocationIdName()).(string)
	if id == "" {
		id = uuid.NewString()
	}

	record := model.NewCallRecord(id, artifacts,
		cloud.StorageURI(c.bucket, artifacts.AudioKey),
		cloud.StorageURI(c.bucket, artifacts.TranscriptKey),
		cloud.StorageURI(c.bucket, artifacts.AnalysisKey))

	inserter := c.client.Dataset(c.dataSource.DatasetName).Table(c.dataSource.CallTable).Inserter()
	if err := inserter.Put(context.GetContext(), record); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist call record for %s: %w", artifacts.VideoObject, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("persisted call record",
		"object", artifacts.VideoObject,
		"recordId", record.Id)
	context.Add(c.GetOutputParam(), artifacts)
}
