package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/socialstats/engage/internal/core/domain"
)

// EnvelopeValidator checks a raw broker payload against the fixed JSON schema
// of its topic before the consumer decodes it. Schemas are compiled once and
// cached for the process lifetime.
type EnvelopeValidator struct {
	once     sync.Once
	compiled map[string]*santhosh.Schema
	initErr  error
}

func NewEnvelopeValidator() *EnvelopeValidator {
	return &EnvelopeValidator{}
}

var topicSchemas = map[string]string{
	domain.TopicPostViews: `{
		"type": "object",
		"required": ["user_id", "post_id", "view_time", "event_time"],
		"properties": {
			"event_id": {"type": "string"},
			"user_id": {"type": "integer"},
			"post_id": {"type": "integer"},
			"view_time": {"type": "string"},
			"event_time": {"type": "string"}
		}
	}`,
	domain.TopicPostLikes: `{
		"type": "object",
		"required": ["user_id", "post_id", "is_like", "like_time", "event_time"],
		"properties": {
			"event_id": {"type": "string"},
			"user_id": {"type": "integer"},
			"post_id": {"type": "integer"},
			"is_like": {"type": "boolean"},
			"like_time": {"type": "string"},
			"event_time": {"type": "string"}
		}
	}`,
	domain.TopicPostComments: `{
		"type": "object",
		"required": ["user_id", "post_id", "comment_id", "comment_time", "event_time"],
		"properties": {
			"event_id": {"type": "string"},
			"user_id": {"type": "integer"},
			"post_id": {"type": "integer"},
			"comment_id": {"type": "integer"},
			"comment_time": {"type": "string"},
			"event_time": {"type": "string"}
		}
	}`,
}

// Validate returns an error when topic is unknown or payload does not conform
// to the topic's envelope schema. The consumer treats both as skippable.
func (v *EnvelopeValidator) Validate(topic string, payload []byte) error {
	v.once.Do(v.compile)
	if v.initErr != nil {
		return v.initErr
	}

	sch, ok := v.compiled[topic]
	if !ok {
		return fmt.Errorf("unknown topic %q", topic)
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if err := sch.Validate(value); err != nil {
		return fmt.Errorf("envelope schema: %w", err)
	}
	return nil
}

func (v *EnvelopeValidator) compile() {
	v.compiled = make(map[string]*santhosh.Schema, len(topicSchemas))
	for topic, raw := range topicSchemas {
		compiler := santhosh.NewCompiler()
		compiler.Draft = santhosh.Draft7
		if err := compiler.AddResource(topic+".json", strings.NewReader(raw)); err != nil {
			v.initErr = fmt.Errorf("add schema for %s: %w", topic, err)
			return
		}
		sch, err := compiler.Compile(topic + ".json")
		if err != nil {
			v.initErr = fmt.Errorf("compile schema for %s: %w", topic, err)
			return
		}
		v.compiled[topic] = sch
	}
}
