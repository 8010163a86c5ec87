package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

func TestParamSchemaEmpty(t *testing.T) {
	assert.Nil(t, paramSchema(model.FunctionSpec{Name: "no_params"}))
}

func TestParamSchemaShape(t *testing.T) {
	schema := paramSchema(model.FunctionSpec{
		Name: "submit",
		Params: []model.ParamSpec{
			{Name: "title", Type: model.ParamString, Description: "summary", Required: true},
			{Name: "months", Type: model.ParamNumber},
			{Name: "priority", Type: model.ParamString, Enum: []string{"low", "high"}},
		},
	})
	require.NotNil(t, schema)

	assert.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)
	title := props["title"].(map[string]any)
	assert.Equal(t, "string", title["type"])
	assert.Equal(t, "summary", title["description"])

	months := props["months"].(map[string]any)
	assert.Equal(t, "number", months["type"])

	priority := props["priority"].(map[string]any)
	assert.Equal(t, []string{"low", "high"}, priority["enum"])

	assert.Equal(t, []string{"title"}, schema["required"])
}

func TestSystemBlockJoinsContext(t *testing.T) {
	req := &Request{System: "You are Nex.", Context: "BALANCE: $0"}
	joined := systemBlock(req)
	assert.Contains(t, joined, "You are Nex.")
	assert.Contains(t, joined, "Current context:")
	assert.Contains(t, joined, "BALANCE: $0")

	bare := &Request{System: "You are Nex."}
	assert.Equal(t, "You are Nex.", systemBlock(bare))
}

func TestNewGatewayUnknownProvider(t *testing.T) {
	_, err := NewGateway("mystery", Options{APIKey: "k"})
	assert.Error(t, err)
}
