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
package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArguments(t *testing.T) {
	schema := &JSONSchema{
		Type:     "object",
		Required: []string{"pattern"},
		Properties: map[string]*JSONSchema{
			"pattern": {Type: "string"},
		},
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"pattern": "*.go"}, false},
		{"missing required field", map[string]any{}, true},
		{"wrong type", map[string]any{"pattern": 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(schema, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateArguments_NilSchemaAdmitsAnything(t *testing.T) {
	assert.NoError(t, ValidateArguments(nil, map[string]any{"anything": true}))
	assert.NoError(t, ValidateArguments(&JSONSchema{}, map[string]any{"anything": true}))
}
