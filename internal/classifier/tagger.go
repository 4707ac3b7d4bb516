package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

// Tag is one model answer: the product it refers to and its vertical.
type Tag struct {
	NetworkProductID string `json:"network_product_id"`
	Vertical         string `json:"vertical"`
}

// Tagger classifies a batch of product listings.
type Tagger interface {
	TagProducts(ctx context.Context, products []*warehouse.ProductListing) ([]Tag, error)
}

// GeminiTagger is the concrete Tagger backed by a Gemini model.
type GeminiTagger struct {
	client *genai.Client
	model  string
}

// NewGeminiTagger creates a tagger for the given model name.
func NewGeminiTagger(ctx context.Context, model string) (*GeminiTagger, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("classifier: creating genai client: %w", err)
	}
	return &GeminiTagger{client: client, model: model}, nil
}

// TagProducts sends the product listings to the model and parses its
// strict-JSON answer into tags, validated against the taxonomy.
func (t *GeminiTagger) TagProducts(ctx context.Context, products []*warehouse.ProductListing) ([]Tag, error) {
	prompt, err := buildTaggingPrompt(products)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("classifier: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("classifier: empty response from model")
	}

	return parseTags(rawText, len(products))
}

// parseTags decodes the model output and checks it covers the batch with
// taxonomy-valid verticals.
func parseTags(raw string, wantCount int) ([]Tag, error) {
	clean := cleanModelJSON(raw)

	var tags []Tag
	if err := json.Unmarshal([]byte(clean), &tags); err != nil {
		return nil, fmt.Errorf("classifier: unmarshal tags: %w\nraw response: %s", err, raw)
	}

	if len(tags) != wantCount {
		return nil, fmt.Errorf("classifier: model returned %d tags for %d products", len(tags), wantCount)
	}

	validator := NewVerticalValidator()
	for i, tag := range tags {
		if tag.NetworkProductID == "" {
			return nil, fmt.Errorf("classifier: tag %d is missing network_product_id", i)
		}
		if err := validator.Validate(tag.Vertical); err != nil {
			return nil, fmt.Errorf("classifier: tag %d: %w", i, err)
		}
		tags[i].Vertical = normalizeVertical(tag.Vertical)
	}

	return tags, nil
}
