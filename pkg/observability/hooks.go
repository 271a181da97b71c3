// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about task loading and merge-and-shrink construction.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the engine packages
// stay free of any metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBuildHooks(&myBuildHooks{})
//	    observability.SetTaskHooks(&myTaskHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Build().OnMerge(ctx, i, j, index, size)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Build Hooks
// =============================================================================

// BuildHooks receives events from the merge-and-shrink construction.
type BuildHooks interface {
	// OnAtomicFactors records the creation of n atomic factors.
	OnAtomicFactors(ctx context.Context, n int)

	// OnMerge records that factors i and j were merged into index with the
	// given number of states.
	OnMerge(ctx context.Context, i, j, index, size int)

	// OnShrink records that the factor at index shrank from before to after
	// states.
	OnShrink(ctx context.Context, index, before, after int)

	// OnLabelReduction records a label reduction step.
	OnLabelReduction(ctx context.Context, reduced bool)

	// OnPrune records that pruning shrank the factor at index.
	OnPrune(ctx context.Context, index, before, after int)

	// OnBuildComplete records the end of a construction.
	OnBuildComplete(ctx context.Context, factors int, duration time.Duration, err error)
}

// =============================================================================
// Task Hooks
// =============================================================================

// TaskHooks receives events from task loading.
type TaskHooks interface {
	// OnTaskLoad records that a task file was read and validated.
	OnTaskLoad(ctx context.Context, path string, variables, operators int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnAtomicFactors(context.Context, int)                       {}
func (NoopBuildHooks) OnMerge(context.Context, int, int, int, int)                {}
func (NoopBuildHooks) OnShrink(context.Context, int, int, int)                    {}
func (NoopBuildHooks) OnLabelReduction(context.Context, bool)                     {}
func (NoopBuildHooks) OnPrune(context.Context, int, int, int)                     {}
func (NoopBuildHooks) OnBuildComplete(context.Context, int, time.Duration, error) {}

// NoopTaskHooks is a no-op implementation of TaskHooks.
type NoopTaskHooks struct{}

func (NoopTaskHooks) OnTaskLoad(context.Context, string, int, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	buildHooks BuildHooks = NoopBuildHooks{}
	taskHooks  TaskHooks  = NoopTaskHooks{}
	hooksMu    sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// This should be called once at application startup before any construction.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetTaskHooks registers custom task hooks.
// This should be called once at application startup before any task is loaded.
func SetTaskHooks(h TaskHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		taskHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Task returns the registered task hooks.
func Task() TaskHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return taskHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	taskHooks = NoopTaskHooks{}
}
