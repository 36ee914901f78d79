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

// Package cor_test contains unit tests for the Chain of Responsibility
// framework: command piping, stop-on-first-error behaviour, and scratch file
// cleanup.
package cor_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/callcoach/gcp-go-call-coach/internal/core/cor"
	"github.com/stretchr/testify/assert"
)

// appendCommand appends its suffix to the piped string input, recording the
// order in which the chain ran its commands.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	failed bool
}

func newAppendCommand(name string, suffix string, fail bool) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, failed: fail}
}

func (c *appendCommand) Execute(context cor.Context) {
	if c.failed {
		context.AddError(c.GetName(), errors.New("induced failure"))
		return
	}
	in := context.Get(c.GetInputParam()).(string)
	context.Add(c.GetOutputParam(), in+c.suffix)
}

func newChainContext(input string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, input)
	return chainCtx
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe-chain")
	chain.AddCommand(newAppendCommand("first", "-a", false))
	chain.AddCommand(newAppendCommand("second", "-b", false))

	chainCtx := newChainContext("seed")
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "seed-a-b", chainCtx.Get(cor.CtxIn))
}

func TestChainStopsAtFirstError(t *testing.T) {
	chain := cor.NewBaseChain("failing-chain")
	chain.AddCommand(newAppendCommand("ok", "-a", false))
	failing := newAppendCommand("boom", "-b", true)
	chain.AddCommand(failing)
	after := newAppendCommand("after", "-c", false)
	chain.AddCommand(after)

	chainCtx := newChainContext("seed")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	// The error is recorded under the failing command's name.
	assert.Contains(t, chainCtx.GetErrors(), "boom")
	// The command after the failure never ran, so the piped value still
	// holds the output of the first command.
	assert.NotContains(t, chainCtx.GetErrors(), "after")
}

func TestChainContinuesOnFailureWhenConfigured(t *testing.T) {
	chain := cor.NewBaseChain("tolerant-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppendCommand("boom", "-a", true))
	chain.AddCommand(newAppendCommand("after", "-b", false))

	chainCtx := newChainContext("seed")
	chain.Execute(chainCtx)

	// The failure is recorded, but the chain kept going: the later command
	// was still considered and, finding no piped input, skipped cleanly
	// instead of being cut off by the earlier error.
	assert.True(t, chainCtx.HasErrors())
	assert.Contains(t, chainCtx.GetErrors(), "boom")
	assert.NotContains(t, chainCtx.GetErrors(), "after")
}

func TestChainSkipsNotExecutableCommandWithoutError(t *testing.T) {
	chain := cor.NewBaseChain("skip-chain")
	// The command requires a CtxIn value, which is never provided, so it is
	// not executable. The chain must finish cleanly anyway: a skipped
	// trigger is an acknowledged no-op, not a failure.
	chain.AddCommand(newAppendCommand("needs-input", "-a", false))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	scratch, err := os.CreateTemp(t.TempDir(), "scratch-")
	assert.NoError(t, err)
	assert.NoError(t, scratch.Close())

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.AddTempFile(scratch.Name())
	chainCtx.Close()

	_, err = os.Stat(scratch.Name())
	assert.True(t, os.IsNotExist(err))
}

func TestContextErrorBookkeeping(t *testing.T) {
	chainCtx := cor.NewBaseContext()
	assert.False(t, chainCtx.HasErrors())

	chainCtx.AddError("some-command", errors.New("failed"))
	assert.True(t, chainCtx.HasErrors())
	assert.Len(t, chainCtx.GetErrors(), 1)
}
