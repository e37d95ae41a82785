// Package extract turns the raw text returned by the vision model into a
// flat set of typed fields, tolerating the several JSON shapes the model
// has been prompted to produce over time.
package extract

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kalambet/grimoire/internal/crystal"
)

const fence = "```"

// StripFences removes a Markdown code fence wrapped around a payload. A
// leading fence may carry a language tag (```json), which is dropped along
// with the rest of its line.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, fence)
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// Parse strips fences from raw and decodes it as a JSON object. Any failure,
// including a well-formed JSON value that is not an object, is reported as
// a *crystal.MalformedResponseError.
func Parse(raw string) (map[string]any, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, crystal.NewMalformedResponse(raw, errors.New("empty response"))
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, crystal.NewMalformedResponse(raw, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, crystal.NewMalformedResponse(raw, errors.New("response is not a JSON object"))
	}
	return doc, nil
}
