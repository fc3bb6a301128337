package engine

// schema.go validates the untyped JSON document returned by the remote
// classifier.  The model is instructed to answer with exactly three fields;
// anything that does not validate against the schema below is treated the
// same as a failed call and routed to the keyword heuristics instead of
// propagating a decode error.

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const intentResultSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["intent", "sentiment", "topic"],
  "properties": {
    "intent":    {"enum": ["question", "request", "greeting", "chitchat", "help"]},
    "sentiment": {"enum": ["positive", "neutral", "negative"]},
    "topic":     {"enum": ["general", "technical", "personal", "other"]}
  }
}`

var compiledIntentSchema = jsonschema.MustCompileString("intent_result.json", intentResultSchema)

// parseIntentResult decodes and validates a remote classification reply.
// The content may be wrapped in Markdown code fences.
func parseIntentResult(content string) (IntentResult, error) {
	raw := stripCodeFence(content)

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return IntentResult{}, fmt.Errorf("%w: decode classification JSON: %v", ErrMalformedReply, err)
	}

	if err := compiledIntentSchema.Validate(doc); err != nil {
		return IntentResult{}, fmt.Errorf("%w: classification shape: %v", ErrMalformedReply, err)
	}

	// Shape is known-good past this point; re-decode into the typed result.
	var result IntentResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return IntentResult{}, fmt.Errorf("%w: decode classification result: %v", ErrMalformedReply, err)
	}
	return result, nil
}
