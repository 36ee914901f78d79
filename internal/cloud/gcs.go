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

// Package cloud contains data structures and utilities for interacting with
// Google Cloud services. This file defines the models for GCS event
// notifications and the derivation of output artifact keys from the
// triggering object name.
package cloud

import (
	"fmt"
	"path/filepath"
	"strings"
)

// GetCallObjectName returns the context key under which the triggering call
// object is stored, so every command in a chain can reach it regardless of
// the piped input.
func GetCallObjectName() string {
	return "__CALL__OBJ__"
}

// GCSPubSubNotification maps the JSON payload of a Google Cloud Storage
// object notification delivered over Pub/Sub.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// ArtifactKeys holds the three output object keys derived from one input
// video name.
type ArtifactKeys struct {
	Base       string // The input object's file name without extension.
	Audio      string // e.g. "audio/call1.flac"
	Transcript string // e.g. "transcripts/call1.txt"
	Analysis   string // e.g. "analysis/call1_analysis.txt"
}

// DeriveArtifactKeys maps an input object name to its three output keys.
// The derivation is deterministic and uses only the base name with its
// extension stripped, so repeated delivery of the same trigger overwrites
// the same objects instead of accumulating duplicates. That overwrite
// behaviour is what makes blind full retries of the pipeline safe.
func DeriveArtifactKeys(objectName string) ArtifactKeys {
	base := strings.TrimSuffix(filepath.Base(objectName), filepath.Ext(objectName))
	return ArtifactKeys{
		Base:       base,
		Audio:      "audio/" + base + ".flac",
		Transcript: "transcripts/" + base + ".txt",
		Analysis:   "analysis/" + base + "_analysis.txt",
	}
}

// StorageURI renders a bucket and object key as a gs:// URI, the form the
// Speech-to-Text service accepts for long-running recognition.
func StorageURI(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}
