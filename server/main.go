// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the call coach backend server.
//
// The application runs a Gin web server exposing a REST API for uploading
// call recordings and reading back the review artifacts (audio, transcript,
// coaching analysis). The interesting work is not in the API, though: a
// background Pub/Sub listener reacts to recordings landing in the input
// bucket and runs the full review pipeline on each. The server is
// instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// Functions:
//   - main: Sets up configuration, telemetry, state, routes, and the
//     graceful shutdown path.
//   - CallRouter: API routes for listing reviews and fetching artifacts.
//   - ArtifactRouter: API route reporting which artifacts exist for a
//     recording.
//   - FileUpload: Multipart upload endpoint that drops recordings into the
//     input bucket, which in turn triggers the pipeline.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/callcoach/gcp-go-call-coach/internal/api"
	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	otelShutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("call-coach-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		CallRouter(apiV1)
		ArtifactRouter(apiV1)
		FileUpload(apiV1)
		api.Dashboard(apiV1, state.callService)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// CallRouter sets up the API routes for completed call reviews.
//
// Endpoints:
//   - GET /calls: Lists the most recent reviews. Accepts an optional
//     `count` query parameter.
//   - GET /calls/:id: Retrieves a single review record by its ID.
//   - GET /calls/:id/artifacts/:kind: Generates a time-limited signed URL
//     for one of the review's artifacts; kind is "audio", "transcript", or
//     "analysis".
func CallRouter(r *gin.RouterGroup) {
	calls := r.Group("/calls")
	{
		calls.GET("", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", "25"))
			if err != nil {
				count = 25
			}
			records, err := state.callService.ListRecent(c, count)
			if err != nil {
				slog.Error("failed to list recent calls", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, records)
		})

		calls.GET("/:id", func(c *gin.Context) {
			record, err := state.callService.Get(c, c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, record)
		})

		calls.GET("/:id/artifacts/:kind", func(c *gin.Context) {
			record, err := state.callService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
				return
			}

			keys := cloud.DeriveArtifactKeys(record.VideoObject)
			var objectKey string
			switch c.Param("kind") {
			case "audio":
				objectKey = keys.Audio
			case "transcript":
				objectKey = keys.Transcript
			case "analysis":
				objectKey = keys.Analysis
			default:
				c.Status(http.StatusBadRequest)
				return
			}

			signedURL, err := state.callService.GenerateSignedURL(c, objectKey, 15*time.Minute)
			if err != nil {
				slog.Error("failed to generate signed URL", "key", objectKey, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate artifact URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// ArtifactRouter sets up the route reporting review progress for one
// recording: which of the derived artifacts already exist in the output
// bucket.
//
// Endpoint:
//   - GET /artifacts?object=<video object name>
func ArtifactRouter(r *gin.RouterGroup) {
	artifacts := r.Group("/artifacts")
	{
		artifacts.GET("", func(c *gin.Context) {
			object := c.Query("object")
			if len(object) == 0 {
				c.Status(http.StatusBadRequest)
				return
			}
			status, err := state.callService.GetArtifactStatus(c, object)
			if err != nil {
				slog.Error("failed to probe artifacts", "object", object, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, status)
		})
	}
}

// FileUpload sets up the multipart upload endpoint. Files posted under the
// "files" form field are written to the input bucket; the resulting GCS
// object-finalize notifications then trigger the review pipeline, so this
// endpoint does not invoke the pipeline itself.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.InputVideoBucket)

			for _, file := range files {
				localPath := filepath.Join(os.TempDir(), filepath.Base(file.Filename))
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				content, err := os.ReadFile(localPath)
				if err != nil {
					slog.Error("failed to read uploaded file", "path", localPath, "error", err)
					c.Status(http.StatusInternalServerError)
					return
				}

				wc := bucket.Object(filepath.Base(file.Filename)).NewWriter(c)
				contentType := file.Header.Get("Content-Type")
				if contentType == "" {
					contentType = "video/mp4"
				}
				wc.ContentType = contentType
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					slog.Error("failed to close bucket handle", "error", err)
				}
				if err := os.Remove(localPath); err != nil {
					slog.Warn("failed to remove uploaded temp file", "path", localPath, "error", err)
				}
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}
