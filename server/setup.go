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

// Package main contains the setup and initialization logic for the server's
// state: a centralized container for the configuration, the Google Cloud
// service clients, and the call review service.
//
// Functions:
//   - SetupOS: Points the configuration loader at the correct TOML files.
//   - GetConfig: A singleton accessor that loads and validates the
//     configuration exactly once. A configuration missing required values is
//     startup-fatal; the server never serves traffic it can only fail.
//   - InitState: Creates all service clients, wires the CallService, and
//     starts the Pub/Sub listeners.
package main

import (
	"context"
	"log"
	"os"

	"github.com/callcoach/gcp-go-call-coach/internal/cloud"
	"github.com/callcoach/gcp-go-call-coach/internal/core/services"
)

// StateManager holds the shared dependencies for the server, avoiding
// package-level globals for each client.
type StateManager struct {
	config      *cloud.Config
	cloud       *cloud.ServiceClients
	callService *services.CallService
}

var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files: the configs directory and the runtime environment
// whose overlay file (e.g. ".env.local.toml") refines the base settings.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides the singleton application configuration. The first call
// loads it from the TOML files and validates it; validation failure aborts
// startup.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to set up configuration environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		if err := config.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState initializes the entire server state: the Google Cloud clients,
// the call review read service, and the Pub/Sub listeners that drive the
// pipeline.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.callService = &services.CallService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		OutputBucket:   config.Storage.OutputBucket,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		CallTable:      config.BigQueryDataSource.CallTable,
	}

	SetupListeners(config, cloudClients, ctx)
}
