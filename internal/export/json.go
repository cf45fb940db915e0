/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"os"
)

// JSONSchema describes the document written by JSON export.
const JSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["headers", "rows"],
  "additionalProperties": false,
  "properties": {
    "headers": {"type": "array", "items": {"type": "string"}},
    "rows": {
      "type": "array",
      "items": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

type jsonDoc struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func writeJSON(path string, t table) error {
	doc := jsonDoc{Headers: t.headers, Rows: t.rows}
	if doc.Headers == nil {
		doc.Headers = []string{}
	}
	if doc.Rows == nil {
		doc.Rows = [][]string{}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
