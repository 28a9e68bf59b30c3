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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks call arguments against a tool's declared schema
// (dispatch pipeline step 1, spec §4.2). A nil or empty schema (Type=="")
// admits anything, since not every tool bothers to declare one.
func ValidateArguments(schema *JSONSchema, args map[string]any) error {
	if schema == nil || schema.Type == "" {
		return nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("tool schema is not serializable: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(raw),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("arguments do not match tool schema: %s", strings.Join(msgs, "; "))
}
