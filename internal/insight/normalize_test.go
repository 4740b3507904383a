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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Insight
	}{
		{
			name: "Complete schema-conforming output",
			raw:  `{"summary":"Mostly positive.","risks":["Low score concentration at 1-2 (5 responses)"],"actions":["a","b","c"],"answer":"Yes, 85 of 100 rated 4 or 5."}`,
			want: Insight{
				Summary: "Mostly positive.",
				Risks:   []string{"Low score concentration at 1-2 (5 responses)"},
				Actions: []string{"a", "b", "c"},
				Answer:  "Yes, 85 of 100 rated 4 or 5.",
			},
		},
		{
			name: "Not JSON at all",
			raw:  "The survey shows positive sentiment overall.",
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Empty string",
			raw:  "",
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Truncated JSON",
			raw:  `{"summary":"Mostly positive.","risks":["Low sco`,
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "JSON null",
			raw:  "null",
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Empty object",
			raw:  "{}",
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Summary only",
			raw:  `{"summary":"Only a summary."}`,
			want: Insight{Summary: "Only a summary.", Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Wrong field types",
			raw:  `{"summary":42,"risks":"not an array","actions":{"a":1},"answer":null}`,
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
		{
			name: "Arrays with mixed element types keep only strings",
			raw:  `{"summary":"s","risks":["real risk",7,null],"actions":[true,"real action"],"answer":"a"}`,
			want: Insight{
				Summary: "s",
				Risks:   []string{"real risk"},
				Actions: []string{"real action"},
				Answer:  "a",
			},
		},
		{
			name: "Extra fields ignored",
			raw:  `{"summary":"s","actions":["a"],"confidence":0.9,"model":"x"}`,
			want: Insight{Summary: "s", Risks: []string{}, Actions: []string{"a"}},
		},
		{
			name: "Top-level array",
			raw:  `["summary","risks"]`,
			want: Insight{Risks: []string{}, Actions: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)

			// Shape invariant: slices are never nil
			assert.NotNil(t, got.Risks)
			assert.NotNil(t, got.Actions)
		})
	}
}
