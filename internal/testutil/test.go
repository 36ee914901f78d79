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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration and canned GCS
// notification payloads for exercising the call review trigger.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
)

// StateManager caches the test configuration so it is loaded once per test
// run instead of once per test.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. A convenience to cut
// boilerplate in tests that set up cloud fixtures.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestCallUploadMessageText returns a canned GCS object-finalize
// notification, as delivered over Pub/Sub, for a call recording landing in
// the test input bucket. It drives the trigger-reader and workflow tests.
func GetTestCallUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "call-coach-input-videos/call1.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/call-coach-input-videos/o/call1.mp4",
  "name": "call1.mp4",
  "bucket": "call-coach-input-videos",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/call-coach-input-videos/o/call1.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// GetTestNonVideoMessageText returns a notification for a PDF uploaded to
// the input bucket. The pipeline must skip it without error.
func GetTestNonVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "call-coach-input-videos/notes.pdf/1728615848664287",
  "selfLink": "https://www.googleapis.com/storage/v1/b/call-coach-input-videos/o/notes.pdf",
  "name": "notes.pdf",
  "bucket": "call-coach-input-videos",
  "generation": "1728615848664287",
  "metageneration": "1",
  "contentType": "application/pdf",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "34081",
  "md5Hash": "aaa1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/call-coach-input-videos/o/notes.pdf?generation=1728615848664287&alt=media",
  "metadata": {},
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAF="
}`
}

// GetTestForeignBucketMessageText returns a notification for a video in a
// bucket the pipeline does not watch. The pipeline must skip it without
// error.
func GetTestForeignBucketMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "some-other-bucket/call1.mp4/1728615848664288",
  "selfLink": "https://www.googleapis.com/storage/v1/b/some-other-bucket/o/call1.mp4",
  "name": "call1.mp4",
  "bucket": "some-other-bucket",
  "generation": "1728615848664288",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/some-other-bucket/o/call1.mp4?generation=1728615848664288&alt=media",
  "metadata": {},
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAG="
}`
}

// SetupOS points the configuration loader at the test configuration files
// (configs/.env.toml plus the .env.test.toml overlay).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
