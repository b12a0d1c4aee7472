package ai

import (
	"testing"

	"optic-backoffice/internal/core"
)

func TestQuoteSuggestionValidate(t *testing.T) {
	catalog := []core.Product{{ID: 1}, {ID: 2}}

	ok := QuoteSuggestion{
		Lines:      []SuggestedLine{{ProductID: 1, Quantity: 2}},
		Confidence: 0.9,
	}
	if err := ok.validate(catalog); err != nil {
		t.Errorf("valid suggestion rejected: %v", err)
	}

	hallucinated := QuoteSuggestion{
		Lines:      []SuggestedLine{{ProductID: 99, Quantity: 1}},
		Confidence: 0.9,
	}
	if err := hallucinated.validate(catalog); err == nil {
		t.Error("expected error for unknown product ID")
	}

	badQty := QuoteSuggestion{
		Lines:      []SuggestedLine{{ProductID: 1, Quantity: 0}},
		Confidence: 0.5,
	}
	if err := badQty.validate(catalog); err == nil {
		t.Error("expected error for non-positive quantity")
	}

	empty := QuoteSuggestion{Confidence: 0.5}
	if err := empty.validate(catalog); err == nil {
		t.Error("expected error for empty suggestion")
	}

	badConfidence := QuoteSuggestion{
		Lines:      []SuggestedLine{{ProductID: 1, Quantity: 1}},
		Confidence: 1.5,
	}
	if err := badConfidence.validate(catalog); err == nil {
		t.Error("expected error for out-of-range confidence")
	}
}
