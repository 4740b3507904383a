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

// Package insight implements the survey insight pipeline: request
// validation, prompt construction, the output schema, and tolerant
// normalization of model output into a stable response shape.
package insight

import (
	"fmt"
	"strings"
)

// Request represents the inbound survey analytics payload.
// surveyTitle, kpis and distribution are required; the remaining fields
// default to empty values.
type Request struct {
	SurveyTitle  string             `json:"surveyTitle"`
	KPIs         map[string]float64 `json:"kpis"`
	Distribution map[string]int     `json:"distribution"`
	Themes       []string           `json:"themes"`
	SampleQuotes []string           `json:"sampleQuotes"`
	UserPrompt   string             `json:"userPrompt"`
}

// Insight is the normalized model output. All four fields are always
// present with their declared types, regardless of what the model returned.
type Insight struct {
	Summary string   `json:"summary"`
	Risks   []string `json:"risks"`
	Actions []string `json:"actions"`
	Answer  string   `json:"answer"`
}

// Validate checks that the three required fields are present and non-empty.
// It performs no I/O; a validation failure must never reach the backend.
func Validate(req Request) error {
	var missing []string

	if strings.TrimSpace(req.SurveyTitle) == "" {
		missing = append(missing, "surveyTitle")
	}
	if len(req.KPIs) == 0 {
		missing = append(missing, "kpis")
	}
	if len(req.Distribution) == 0 {
		missing = append(missing, "distribution")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, "/"))
	}

	return nil
}

// ApplyDefaults normalizes the optional fields so that the serialized user
// payload always carries all six keys.
func ApplyDefaults(req Request) Request {
	if req.Themes == nil {
		req.Themes = []string{}
	}
	if req.SampleQuotes == nil {
		req.SampleQuotes = []string{}
	}
	req.UserPrompt = strings.TrimSpace(req.UserPrompt)
	return req
}
