/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"
	"unicode"
)

// ColumnIdentifiers maps headers to unique SQL column names: lowercase,
// runs of anything but letters and digits become "_", empty names become
// col_N, names starting with a digit get a "c_" prefix and repeats get _2, _3.
func ColumnIdentifiers(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		id := Identifier(h)
		if id == "" {
			id = fmt.Sprintf("col_%d", i+1)
		}
		if used[id] {
			for n := 2; ; n++ {
				if cand := fmt.Sprintf("%s_%d", id, n); !used[cand] {
					id = cand
					break
				}
			}
		}
		used[id] = true
		out[i] = id
	}
	return out
}

// Identifier sanitizes one name. It may return "".
func Identifier(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	id := b.String()
	if id != "" && id[0] >= '0' && id[0] <= '9' {
		id = "c_" + id
	}
	return id
}

// quoteIdent double-quotes a sanitized identifier for SQL.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
