// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package event

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager holds the mutable display state the UI cares about (is the
// spinner running, what step are we on) and forwards every event to the
// injected sink. It never blocks the caller: a full outbound queue drops
// the event being emitted rather than stalling execution.
type Manager struct {
	mu          sync.RWMutex
	sink        Sink
	logger      *zap.Logger
	animating   bool
	currentStep int
	queue       chan Event
	done        chan struct{}
}

// NewManager starts a Manager with a bounded async delivery queue.
func NewManager(sink Sink, logger *zap.Logger) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go m.deliver()
	return m
}

func (m *Manager) deliver() {
	for e := range m.queue {
		m.sink.Handle(e)
	}
	close(m.done)
}

// Emit records display-state side effects and enqueues e for delivery.
// Non-blocking: if the queue is saturated, the event is dropped and logged
// rather than stalling the execution loop.
func (m *Manager) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	m.mu.Lock()
	switch e.Kind {
	case ThinkingStarted, ContentStreamStarted:
		m.animating = true
	case ThinkingStopped, ContentStreamEnded:
		m.animating = false
	case StepStarted:
		m.currentStep = e.Step
	}
	m.mu.Unlock()

	select {
	case m.queue <- e:
	default:
		m.logger.Warn("event_queue_full_dropped_event", zap.String("kind", string(e.Kind)))
	}
}

// Animating reports whether a thinking/streaming indicator should be shown.
func (m *Manager) Animating() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.animating
}

// CurrentStep reports the most recently started step number.
func (m *Manager) CurrentStep() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentStep
}

// Close drains and stops the delivery goroutine.
func (m *Manager) Close() {
	close(m.queue)
	<-m.done
}
