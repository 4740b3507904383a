// Copyright 2024 Survey Insights Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package insight

import (
	"encoding/json"
)

// Normalize parses raw model output into an Insight. The model is not
// guaranteed to emit valid JSON even under schema constraints, so parsing
// never fails: malformed or truncated output degrades to an empty object,
// and each field is coerced independently. Partial insight is preferred
// over a hard failure.
func Normalize(raw string) Insight {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		fields = map[string]any{}
	}

	return Insight{
		Summary: coerceString(fields["summary"]),
		Risks:   coerceStringSlice(fields["risks"]),
		Actions: coerceStringSlice(fields["actions"]),
		Answer:  coerceString(fields["answer"]),
	}
}

// coerceString returns v if it is a string, otherwise "".
func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// coerceStringSlice returns the string elements of v if it is an array,
// otherwise an empty slice. Non-string elements are skipped.
func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
