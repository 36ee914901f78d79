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

// Package model holds the data structures passed between pipeline commands
// and the record persisted once a call review completes.
package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// CallArtifacts carries the state of one call review as it moves down the
// pipeline: the source video, the derived storage keys, the local scratch
// files, and the produced text. Commands fill fields in as they run.
type CallArtifacts struct {
	// Bucket and VideoObject identify the uploaded recording.
	Bucket      string
	VideoObject string
	MIMEType    string

	// Base is the video object's file name without extension; every
	// derived artifact key embeds it so a retried run overwrites its own
	// prior output instead of creating duplicates.
	Base string

	// Derived object keys in the output bucket.
	AudioKey      string
	TranscriptKey string
	AnalysisKey   string

	// Local scratch paths, removed when the pipeline context closes.
	LocalVideoPath string
	LocalAudioPath string

	// Produced text.
	Transcript string
	Analysis   string
}

// CallRecord is the row persisted to BigQuery when a call review completes.
// Field tags name the destination columns.
type CallRecord struct {
	Id            string         `bigquery:"id" json:"id"`
	VideoObject   string         `bigquery:"video_object" json:"video_object"`
	AudioURI      string         `bigquery:"audio_uri" json:"audio_uri"`
	TranscriptURI string         `bigquery:"transcript_uri" json:"transcript_uri"`
	AnalysisURI   string         `bigquery:"analysis_uri" json:"analysis_uri"`
	HasSpeech     bool           `bigquery:"has_speech" json:"has_speech"`
	CompletedAt   civil.DateTime `bigquery:"completed_at" json:"completed_at"`
}

// NewCallRecord builds the persisted record for a finished review.
func NewCallRecord(id string, artifacts *CallArtifacts, audioURI, transcriptURI, analysisURI string) *CallRecord {
	return &CallRecord{
		Id:            id,
		VideoObject:   artifacts.VideoObject,
		AudioURI:      audioURI,
		TranscriptURI: transcriptURI,
		AnalysisURI:   analysisURI,
		HasSpeech:     artifacts.Transcript != "",
		CompletedAt:   civil.DateTimeOf(time.Now()),
	}
}
