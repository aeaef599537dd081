package classify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAI_RequiresKeyAndLabels(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{Model: "gpt-4.1", Labels: testLabels})
	assert.Error(t, err, "Missing API key must be rejected")

	_, err = NewOpenAI(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4.1"})
	assert.Error(t, err, "Empty label set must be rejected")
}

func TestNewOpenAI_Defaults(t *testing.T) {
	c, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4.1", Labels: testLabels})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", c.Model())
	assert.Equal(t, 60*time.Second, c.timeout)
	assert.Equal(t, 3, c.maxRetries)
}

func TestResponseSchema_ClosedOverLabels(t *testing.T) {
	raw, err := responseSchema([]string{"urgent", "spam"})
	require.NoError(t, err)

	var schema struct {
		Type                 string                    `json:"type"`
		Properties           map[string]map[string]any `json:"properties"`
		Required             []string                  `json:"required"`
		AdditionalProperties bool                      `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"urgent", "spam"}, schema.Required)
	assert.False(t, schema.AdditionalProperties)
	assert.Contains(t, schema.Properties, "urgent")
	assert.Contains(t, schema.Properties, "spam")
	assert.Equal(t, "integer", schema.Properties["urgent"]["type"])
}
