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

// Package services contains the business logic for interacting with data
// sources. This file defines the CallService, the read side of the call
// coach: it reports which artifacts exist for a given recording, lists
// completed reviews from BigQuery, and mints time-limited signed URLs so
// the dashboard can fetch private artifacts directly from Google Cloud
// Storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/model"
	"google.golang.org/api/iterator"
)

// ArtifactStatus reports, for one uploaded recording, which of the derived
// artifacts exist in the output bucket. The pipeline writes them in order,
// so the booleans also tell how far a review has progressed.
type ArtifactStatus struct {
	VideoObject   string `json:"video_object"`
	AudioKey      string `json:"audio_key"`
	TranscriptKey string `json:"transcript_key"`
	AnalysisKey   string `json:"analysis_key"`
	HasAudio      bool   `json:"has_audio"`
	HasTranscript bool   `json:"has_transcript"`
	HasAnalysis   bool   `json:"has_analysis"`
}

// CallService is the data access layer for completed and in-flight call
// reviews.
type CallService struct {
	BigqueryClient *bigquery.Client                  // Client for querying call records.
	StorageClient  *storage.Client                   // Client for probing and signing artifact objects.
	IAMClient      *credentials.IamCredentialsClient // Client for IAM-based URL signing.
	SignerEmail    string                            // The service account email used to sign URLs.
	OutputBucket   string                            // The bucket holding audio, transcript, and analysis artifacts.
	DatasetName    string                            // The BigQuery dataset; empty disables record queries.
	CallTable      string                            // The table holding call review records.
}

// GetFQN returns the complete, queryable name for the call records table,
// formatted with dots instead of colons.
func (s *CallService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.CallTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// GetArtifactStatus derives the artifact keys for a recording name and
// probes the output bucket for each. The probe uses object attributes, so
// no artifact content is transferred.
func (s *CallService) GetArtifactStatus(ctx context.Context, videoObject string) (*ArtifactStatus, error) {
	keys := cloud.DeriveArtifactKeys(videoObject)
	status := &ArtifactStatus{
		VideoObject:   videoObject,
		AudioKey:      keys.Audio,
		TranscriptKey: keys.Transcript,
		AnalysisKey:   keys.Analysis,
	}

	bucket := s.StorageClient.Bucket(s.OutputBucket)
	for _, probe := range []struct {
		key    string
		exists *bool
	}{
		{keys.Audio, &status.HasAudio},
		{keys.Transcript, &status.HasTranscript},
		{keys.Analysis, &status.HasAnalysis},
	} {
		_, err := bucket.Object(probe.key).Attrs(ctx)
		switch {
		case err == nil:
			*probe.exists = true
		case errors.Is(err, storage.ErrObjectNotExist):
			*probe.exists = false
		default:
			return nil, fmt.Errorf("failed to probe gs://%s/%s: %w", s.OutputBucket, probe.key, err)
		}
	}
	return status, nil
}

// Get retrieves a single call review record by its ID.
func (s *CallService) Get(ctx context.Context, id string) (*model.CallRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindCallById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	record := &model.CallRecord{}
	if err := itr.Next(record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecent returns the most recently completed reviews, newest first.
func (s *CallService) ListRecent(ctx context.Context, limit int) ([]*model.CallRecord, error) {
	if limit <= 0 {
		limit = 25
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRecentCalls, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: limit}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*model.CallRecord, 0, limit)
	for {
		record := &model.CallRecord{}
		err := itr.Next(record)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// GenerateSignedURL creates a time-limited, secure URL for one artifact in
// the output bucket. The URL is signed through the IAM Credentials API with
// the configured service account, so no private key ships with the server.
func (s *CallService) GenerateSignedURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(s.OutputBucket).SignedURL(objectKey, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.OutputBucket, objectKey, err)
	}
	return u, nil
}
