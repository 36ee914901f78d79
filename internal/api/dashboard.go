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

// Package api contains route definitions shared by the server. This file
// defines the dashboard statistics endpoint, which summarizes recent call
// reviews for the coaching dashboard's landing page.
package api

import (
	"log/slog"
	"net/http"

	"github.com/callcoach/gcp-go-call-coach/internal/core/services"
	"github.com/gin-gonic/gin"
)

// Dashboard configures the statistics routes under "/stats".
//
// Endpoint:
//   - GET /stats: Returns the number of recently completed reviews and how
//     many of them contained recognizable speech, computed over the most
//     recent records.
func Dashboard(r *gin.RouterGroup, callService *services.CallService) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			records, err := callService.ListRecent(c, 100)
			if err != nil {
				slog.Error("failed to compute dashboard stats", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			withSpeech := 0
			for _, record := range records {
				if record.HasSpeech {
					withSpeech++
				}
			}
			c.JSON(http.StatusOK, gin.H{
				"recent_reviews": len(records),
				"with_speech":    withSpeech,
				"silent":         len(records) - withSpeech,
			})
		})
	}
}
