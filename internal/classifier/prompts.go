package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moxiedata/affiliate-ledger/internal/warehouse"
)

// buildTaggingPrompt constructs the classification prompt: instructions,
// the allowed taxonomy, and the product listings as a JSON array.
func buildTaggingPrompt(products []*warehouse.ProductListing) (string, error) {
	type promptProduct struct {
		NetworkProductID string `json:"network_product_id"`
		Name             string `json:"name"`
		Category         string `json:"category"`
	}

	listings := make([]promptProduct, 0, len(products))
	for _, p := range products {
		listings = append(listings, promptProduct{
			NetworkProductID: p.NetworkProductID,
			// Colour suffixes after "~" confuse the classifier; drop them.
			Name:     strings.TrimSpace(strings.SplitN(p.ProductName, "~", 2)[0]),
			Category: p.Category,
		})
	}

	productJSON, err := json.Marshal(listings)
	if err != nil {
		return "", fmt.Errorf("classifier: encoding product listings: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a retail product classifier for affiliate-commerce product data.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign each product below to exactly one vertical.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array with one object per input product, in input order.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"network_product_id\": string, copied from the input\n")
	b.WriteString("- \"vertical\": string, one of the verticals below\n\n")

	b.WriteString("Use ONLY the following verticals:\n")
	for _, v := range Verticals {
		b.WriteString("  - " + v + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Rules:\n")
	b.WriteString("1. Vertical must be EXACTLY one of the names shown above.\n")
	b.WriteString("2. If you are unsure, use \"other\".\n")
	b.WriteString("3. Return ONLY valid raw JSON.\n")
	b.WriteString("4. Do NOT wrap the response in code fences.\n")
	b.WriteString("5. Output must begin with \"[\" and end with \"]\".\n\n")

	b.WriteString("Products:\n")
	b.Write(productJSON)
	b.WriteString("\n")

	return b.String(), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
