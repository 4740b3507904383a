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
	"fmt"
	"strings"
)

// SystemPrompt returns the fixed analyst-persona instruction for the model.
func SystemPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("You are an analyst writing brief, executive-friendly insights for a research culture survey (Likert 1-5, where 1-2 is negative and 4-5 is positive).\n\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("- Use ONLY the numbers provided in the payload. Never invent data, percentages, or trends.\n")
	prompt.WriteString("- Open with a 2-3 sentence plain-language summary citing the exact figures.\n")
	prompt.WriteString("- Call out risks (concentrations of 1-2 responses) and strengths (concentrations of 5s).\n")
	prompt.WriteString("- List exactly 3 concise, actionable recommendations.\n")
	prompt.WriteString("- If the payload includes a non-empty userPrompt, answer it directly in 1-3 sentences using ONLY this data, or state explicitly that the data is insufficient to answer it.\n")
	prompt.WriteString("- No fluff.\n")

	return prompt.String()
}

// UserPayload serializes the validated request, with defaults applied, into
// the single user-turn message sent alongside the system instruction.
func UserPayload(req Request) (string, error) {
	payload, err := json.Marshal(ApplyDefaults(req))
	if err != nil {
		return "", fmt.Errorf("failed to serialize survey payload: %w", err)
	}
	return string(payload), nil
}
