// Copyright 2025 Poiesic Systems
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


package capability

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/poiesic/enrichit/core"
)

// decode finds the first JSON object embedded in a model response that
// unmarshals into v. Code fences and surrounding prose are skipped, as is
// any brace-delimited prose that is not valid JSON. Any failure is reported
// as core.ErrMalformedOutput.
func decode(response string, v any) error {
	var firstErr error
	for from := 0; ; {
		start, end, err := nextObject(response, from)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return firstErr
		}
		obj := response[start:end]
		reflect.ValueOf(v).Elem().SetZero()
		err = json.Unmarshal([]byte(obj), v)
		if err != nil {
			// Try to repair common JSON issues
			err = json.Unmarshal([]byte(repairJSON(obj)), v)
		}
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", core.ErrMalformedOutput, err)
		}
		from = end
	}
}

// nextObject returns the bounds of the first balanced {...} span in s at or
// after from. Braces inside string literals are skipped. When the span never
// closes, usually because a missing quote flipped the string state, it runs
// to the last closing brace so repairJSON gets a chance at it. With no
// closing brace left the object was truncated.
func nextObject(s string, from int) (int, int, error) {
	rel := strings.IndexByte(s[from:], '{')
	if rel < 0 {
		return 0, 0, fmt.Errorf("%w: no JSON object in response", core.ErrMalformedOutput)
	}
	start := from + rel

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, i + 1, nil
			}
		}
	}
	if last := strings.LastIndexByte(s, '}'); last > start {
		return start, last + 1, nil
	}
	return 0, 0, fmt.Errorf("%w: unterminated JSON object", core.ErrMalformedOutput)
}

// repairJSON attempts to fix common JSON formatting issues from LLM responses:
// a missing opening quote before a key (`, type":` -> `, "type":`) and a
// trailing comma before a closing brace or bracket.
func repairJSON(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+16)

	i := 0
	for i < len(result) {
		ch := result[i]

		if ch == ',' {
			// Drop trailing commas
			j := i + 1
			for j < len(result) && isSpace(result[j]) {
				j++
			}
			if j < len(result) && (result[j] == '}' || result[j] == ']') {
				i++
				continue
			}
		}

		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		fixed = append(fixed, ch)
		i++
		for i < len(result) && isSpace(result[i]) {
			fixed = append(fixed, result[i])
			i++
		}

		if i < len(result) && result[i] != '"' && isLetter(result[i]) {
			keyStart := i
			for i < len(result) && (isLetter(result[i]) || result[i] == '_') {
				i++
			}
			if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
				// Add opening quote; the closing quote is already there
				fixed = append(fixed, '"')
			}
			fixed = append(fixed, result[keyStart:i]...)
		}
	}

	return string(fixed)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
