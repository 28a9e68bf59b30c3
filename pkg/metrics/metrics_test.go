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
package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/event"
	"github.com/warpcore/warp/pkg/llm"
)

func TestCollector_Handle_ToolCallsCounted(t *testing.T) {
	c := NewCollector()
	c.Handle(event.Event{Kind: event.ToolExecutionCompleted, ToolName: "bash", Success: true})
	c.Handle(event.Event{Kind: event.ToolExecutionCompleted, ToolName: "bash", Success: false})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `warp_tool_calls_total{outcome="success",tool="bash"} 1`)
	assert.Contains(t, body, `warp_tool_calls_total{outcome="failure",tool="bash"} 1`)
}

func TestCollector_OnCircuitStateChange(t *testing.T) {
	c := NewCollector()
	c.OnCircuitStateChange("anthropic", llm.StateClosed, llm.StateOpen)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `warp_llm_circuit_state{provider="anthropic"} 2`)
}

func TestCollector_OnFallback(t *testing.T) {
	c := NewCollector()
	c.OnFallback(llm.FallbackEvent{From: "anthropic/claude", To: "openai/gpt-4o"})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `warp_llm_fallback_total{from="anthropic/claude",to="openai/gpt-4o"} 1`)
}

func TestCollector_OnCompacted(t *testing.T) {
	c := NewCollector()
	c.OnCompacted(1000, 400)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "warp_context_compactions_total 1")
}
