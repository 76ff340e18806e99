package prompt

import (
	"strings"
	"testing"

	"swift-ai-market/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingBuilder_Messages(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello, what are you looking for?"},
	}
	b := NewShoppingBuilder("wireless headphones under $100", []ContextProduct{
		{Name: "Aurora Buds", Price: 79.9, Category: "Audio", Rating: 4.6, ReviewCount: 1280, Description: "ANC earbuds", Similarity: 0.913},
	}, history)

	msgs := b.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, history, msgs[1:3])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "wireless headphones under $100"}, msgs[3])

	system := msgs[0].Content
	for _, want := range []string{
		"1. Aurora Buds",
		"Price: $79.90",
		"Category: Audio",
		"Rating: 4.6/5 (1280 reviews)",
		"Similarity: 91.3%",
	} {
		assert.Contains(t, system, want)
	}
	assert.NotContains(t, system, "No catalog product matched")
}

func TestShoppingBuilder_NoProducts(t *testing.T) {
	system := NewShoppingBuilder("something odd", nil, nil).SystemPrompt()
	assert.False(t, strings.Contains(system, "<relevant_products>"))
	assert.Contains(t, system, "No catalog product matched")
}
