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
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		SurveyTitle:  "2024 Culture Survey",
		KPIs:         map[string]float64{"participation": 0.82},
		Distribution: map[string]int{"1": 2, "2": 3, "3": 10, "4": 40, "5": 45},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Request)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "Valid request",
			mutate: func(r *Request) {},
		},
		{
			name: "Valid request with optional fields",
			mutate: func(r *Request) {
				r.Themes = []string{"workload", "recognition"}
				r.SampleQuotes = []string{"More time for research please"}
				r.UserPrompt = "Are staff satisfied?"
			},
		},
		{
			name:        "Missing survey title",
			mutate:      func(r *Request) { r.SurveyTitle = "" },
			expectError: true,
			errorMsg:    "surveyTitle",
		},
		{
			name:        "Whitespace survey title",
			mutate:      func(r *Request) { r.SurveyTitle = "   " },
			expectError: true,
			errorMsg:    "surveyTitle",
		},
		{
			name:        "Missing kpis",
			mutate:      func(r *Request) { r.KPIs = nil },
			expectError: true,
			errorMsg:    "kpis",
		},
		{
			name:        "Empty kpis",
			mutate:      func(r *Request) { r.KPIs = map[string]float64{} },
			expectError: true,
			errorMsg:    "kpis",
		},
		{
			name:        "Missing distribution",
			mutate:      func(r *Request) { r.Distribution = nil },
			expectError: true,
			errorMsg:    "distribution",
		},
		{
			name: "All required fields missing",
			mutate: func(r *Request) {
				r.SurveyTitle = ""
				r.KPIs = nil
				r.Distribution = nil
			},
			expectError: true,
			errorMsg:    "surveyTitle/kpis/distribution",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := Validate(req)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "missing required fields")
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	req := validRequest()
	req.UserPrompt = "  Are staff satisfied?  "

	normalized := ApplyDefaults(req)

	assert.NotNil(t, normalized.Themes)
	assert.Empty(t, normalized.Themes)
	assert.NotNil(t, normalized.SampleQuotes)
	assert.Empty(t, normalized.SampleQuotes)
	assert.Equal(t, "Are staff satisfied?", normalized.UserPrompt)
}

func TestApplyDefaultsPreservesProvidedValues(t *testing.T) {
	req := validRequest()
	req.Themes = []string{"workload"}
	req.SampleQuotes = []string{"quote"}

	normalized := ApplyDefaults(req)

	assert.Equal(t, []string{"workload"}, normalized.Themes)
	assert.Equal(t, []string{"quote"}, normalized.SampleQuotes)
	assert.Equal(t, "", normalized.UserPrompt)
}
