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
	"github.com/sashabaranov/go-openai/jsonschema"
)

// SchemaName is the name the output schema is registered under in the
// completion request.
const SchemaName = "Insight"

// Schema returns the JSON schema the model output is constrained to.
// Extra fields are disallowed; summary and actions are required.
func Schema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"summary": {
				Type:        jsonschema.String,
				Description: "2-3 sentence plain-language summary citing exact figures",
			},
			"risks": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
			"actions": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String},
			},
			"answer": {
				Type:        jsonschema.String,
				Description: "Direct answer to userPrompt, if one was supplied",
			},
		},
		Required:             []string{"summary", "actions"},
		AdditionalProperties: false,
	}
}
