package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"optic-backoffice/internal/core"
)

// SuggestedLine is one product line the assistant proposes for a quote.
type SuggestedLine struct {
	ProductID int    `json:"product_id" jsonschema_description:"ID of a product from the catalog list"`
	Quantity  int    `json:"quantity" jsonschema_description:"How many units the customer needs"`
	Reason    string `json:"reason" jsonschema_description:"Why this product matches the request"`
}

// QuoteSuggestion is the assistant's draft for a quote. It is advisory
// only: nothing is persisted until a user submits it as a real quote.
type QuoteSuggestion struct {
	Lines      []SuggestedLine `json:"lines"`
	Notes      string          `json:"notes" jsonschema_description:"Short summary of the suggestion for the seller"`
	Confidence float64         `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
}

// Assistant drafts quote lines from a natural-language description of
// what the customer needs, constrained to the active product catalog
// via structured output.
type Assistant struct {
	client *openai.Client
}

func NewAssistant(apiKey string) *Assistant {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Assistant{client: &client}
}

func (a *Assistant) SuggestQuote(ctx context.Context, text string, catalog []core.Product) (*QuoteSuggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("request text is empty: %w", core.ErrInvalidInput)
	}

	var sb strings.Builder
	for _, p := range catalog {
		fmt.Fprintf(&sb, "- id=%d sku=%s name=%q category=%s brand=%s price=%s stock=%d\n",
			p.ID, p.SKU, p.Name, p.Category, p.Brand, p.SalePrice.StringFixed(2), p.StockQuantity)
	}

	prompt := fmt.Sprintf(`You are an optical store sales assistant.
Your goal is to turn a customer's request into a draft quote using the store's catalog.
Rules:
1. Use ONLY product IDs from the catalog below.
2. Prefer products with stock available.
3. Quantities must be positive integers.
4. Provide a confidence score (0.0-1.0).
5. Keep the notes short and in the seller's language.

Catalog:
%s

Customer request: %s`, sb.String(), text)

	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "quote_suggestion",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A draft quote for an optical store customer"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var suggestion QuoteSuggestion
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	if err := suggestion.validate(catalog); err != nil {
		return nil, fmt.Errorf("suggestion validation failed: %w", err)
	}
	return &suggestion, nil
}

// validate rejects hallucinated product IDs and malformed quantities.
func (s *QuoteSuggestion) validate(catalog []core.Product) error {
	if len(s.Lines) == 0 {
		return fmt.Errorf("no lines suggested")
	}
	known := make(map[int]bool, len(catalog))
	for _, p := range catalog {
		known[p.ID] = true
	}
	for i, l := range s.Lines {
		if !known[l.ProductID] {
			return fmt.Errorf("line %d: product %d is not in the catalog", i+1, l.ProductID)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("line %d: quantity must be positive, got %d", i+1, l.Quantity)
		}
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %f out of range", s.Confidence)
	}
	return nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v QuoteSuggestion
	return reflector.Reflect(v)
}
