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

// Package cloud_test contains unit tests for the cloud package's data
// structures: artifact key derivation and GCS notification parsing.
package cloud_test

import (
	"encoding/json"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	test "github.com/callcoach/gcp-go-call-coach/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDeriveArtifactKeys(t *testing.T) {
	keys := cloud.DeriveArtifactKeys("call1.mp4")
	assert.Equal(t, "call1", keys.Base)
	assert.Equal(t, "audio/call1.flac", keys.Audio)
	assert.Equal(t, "transcripts/call1.txt", keys.Transcript)
	assert.Equal(t, "analysis/call1_analysis.txt", keys.Analysis)
}

func TestDeriveArtifactKeysStripsDirectories(t *testing.T) {
	keys := cloud.DeriveArtifactKeys("2024/october/call1.mp4")
	assert.Equal(t, "audio/call1.flac", keys.Audio)
	assert.Equal(t, "transcripts/call1.txt", keys.Transcript)
	assert.Equal(t, "analysis/call1_analysis.txt", keys.Analysis)
}

// Redelivered triggers must map to the same keys every time; the retry
// safety of the whole pipeline rests on this.
func TestDeriveArtifactKeysIsDeterministic(t *testing.T) {
	first := cloud.DeriveArtifactKeys("call1.mov")
	second := cloud.DeriveArtifactKeys("call1.mov")
	assert.Equal(t, first, second)
}

func TestStorageURI(t *testing.T) {
	assert.Equal(t, "gs://bucket/audio/call1.flac", cloud.StorageURI("bucket", "audio/call1.flac"))
}

func TestNotificationUnmarshal(t *testing.T) {
	var notification cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(test.GetTestCallUploadMessageText()), &notification)
	assert.NoError(t, err)
	assert.Equal(t, "call1.mp4", notification.Name)
	assert.Equal(t, "call-coach-input-videos", notification.Bucket)
	assert.Equal(t, "video/mp4", notification.ContentType)
}
