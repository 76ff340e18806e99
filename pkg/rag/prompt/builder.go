package prompt

import (
	"fmt"
	"strings"

	"swift-ai-market/pkg/llm"
)

// ContextProduct is one catalog item handed to the model as grounding.
type ContextProduct struct {
	Name        string
	Description string
	Category    string
	Price       float64
	Rating      float64
	ReviewCount int
	Similarity  float64
}

// ShoppingBuilder builds the message list for one shopping-assistant turn:
// a system message carrying the task and the matched products, the prior
// conversation, then the new user message.
type ShoppingBuilder struct {
	products []ContextProduct
	history  []llm.Message
	query    string
}

func NewShoppingBuilder(query string, products []ContextProduct, history []llm.Message) *ShoppingBuilder {
	return &ShoppingBuilder{
		products: products,
		history:  history,
		query:    query,
	}
}

func (b *ShoppingBuilder) Messages() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: b.SystemPrompt()})
	messages = append(messages, b.history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: b.query})
	return messages
}

func (b *ShoppingBuilder) SystemPrompt() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeProducts(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *ShoppingBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a shopping assistant that helps users find products in this store.\n")
	prompt.WriteString("Help them find products that fit their needs, explain product details, ")
	prompt.WriteString("recommend based on their preferences and compare products when it helps.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ShoppingBuilder) writeProducts(prompt *strings.Builder) {
	if len(b.products) == 0 {
		return
	}

	prompt.WriteString("<relevant_products>\n")
	for i, p := range b.products {
		fmt.Fprintf(prompt, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(prompt, "   - Price: $%.2f\n", p.Price)
		fmt.Fprintf(prompt, "   - Category: %s\n", p.Category)
		fmt.Fprintf(prompt, "   - Rating: %.1f/5 (%d reviews)\n", p.Rating, p.ReviewCount)
		fmt.Fprintf(prompt, "   - Description: %s\n", p.Description)
		fmt.Fprintf(prompt, "   - Similarity: %.1f%%\n", p.Similarity*100)
	}
	prompt.WriteString("</relevant_products>\n\n")
}

func (b *ShoppingBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Answer in a friendly, professional tone\n")
	prompt.WriteString("2. When relevant products are listed, ground your answer in them and do not invent others\n")
	prompt.WriteString("3. Never make up prices, ratings or availability\n")
	if len(b.products) == 0 {
		prompt.WriteString("4. No catalog product matched this request; help with general shopping questions or ask for more detail to improve the search\n")
	}
	prompt.WriteString("</guidelines>")
}
