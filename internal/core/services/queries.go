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
// sources. This file centralizes the BigQuery SQL query strings used by the
// call service. The queries use `fmt.Sprintf` format verbs as placeholders
// for the fully qualified table name; user-supplied values are always bound
// as query parameters, never formatted into the SQL text.
package services

const (
	// QryRecentCalls lists the most recently completed call reviews for the
	// dashboard, newest first.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the call records table.
	QryRecentCalls = "SELECT * FROM `%s` ORDER BY completed_at DESC LIMIT @limit"

	// QryFindCallById retrieves a single call review record by its ID.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the call records table.
	QryFindCallById = "SELECT * FROM `%s` WHERE id = @id"
)
