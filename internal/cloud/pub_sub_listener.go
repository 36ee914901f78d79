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

// Package cloud provides components for interacting with Google Cloud
// services. This file defines the Pub/Sub listener that turns storage event
// notifications into pipeline executions.
//
// Delivery semantics: the subscription delivers at least once. A message is
// acked only when the attached command chain completes without errors; a
// failed execution leaves the message unacked so Pub/Sub redelivers it and
// the whole pipeline reruns from the unchanged input object. Idempotent
// artifact naming makes that rerun safe.
package cloud

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"
	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// GetInvocationIdName returns the context key holding the unique ID assigned
// to one pipeline invocation, used to correlate its log lines.
func GetInvocationIdName() string {
	return "__INVOCATION_ID__"
}

// PubSubListener connects a single Pub/Sub subscription to a processing
// command. Listeners outlive individual invocations, so they live in the
// cloud package rather than with the per-run pipeline state.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for the given subscription ID. The
// command may be nil at construction and attached later with SetCommand.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches a command to the listener. A command that is already
// attached is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Each message
// gets its own chain context, an invocation ID, and a trace span; scratch
// files created during the run are removed when the run ends, whatever its
// outcome.
func (m *PubSubListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("call-trigger-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			invocationId := uuid.NewString()
			spanCtx, span := tracer.Start(ctx, "receive-call-trigger")
			span.SetAttributes(
				attribute.String("invocation.id", invocationId),
				attribute.String("msg", string(msg.Data)),
			)
			log.Printf("received call trigger, invocation %s", invocationId)

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(GetInvocationIdName(), invocationId)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for k, e := range chainCtx.GetErrors() {
					log.Printf("invocation %s failed at %s: %v", invocationId, k, e)
				}
				// No Ack and no Nack: the ack deadline expires and the
				// subscription's retry policy redelivers the trigger.
			}

			span.End()
		})

		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}
