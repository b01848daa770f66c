package recommend

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ukydev/lunch-recommender/internal/models"
)

// SystemPrompt sets the assistant role for ranking requests.
const SystemPrompt = "You are a lunch recommendation expert. Respond only with a JSON array."

var (
	openingFence = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*")
	closingFence = regexp.MustCompile("(?m)\\s*```$")
)

// BuildPrompt renders the ranking request for the candidates near location.
func BuildPrompt(candidates []models.Restaurant, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user is at %s. Recommend the best lunch options from the restaurants below.\n\n", location)
	b.WriteString("Restaurants:\n")
	for _, r := range candidates {
		fmt.Fprintf(&b, "- id: %d, name: %s, category: %s, rating: %.1f, price: %s", r.ID, r.Name, r.Category, r.Rating, r.PriceRange)
		if r.Distance != nil {
			fmt.Fprintf(&b, ", distance: %.0fm", *r.Distance)
		}
		if r.Description != "" {
			fmt.Fprintf(&b, ", description: %s", r.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, `
Rank them by how well they suit lunch, considering:
1. Whether the menu fits a lunch meal
2. Distance (closer is better for a lunch break)
3. How quickly a meal can be finished within a lunch hour
4. Rating

Use only the ids listed above. Answer with a JSON array of objects and no other text or formatting:
[{"id": 1, "reason": "short reason"}]
`)
	return b.String()
}

// CleanResponse strips a Markdown code fence wrapped around the model output.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseRecommendations decodes the model output and keeps, in order, the picks
// naming a candidate id. A result with no valid pick is ErrUnparseable.
func ParseRecommendations(raw string, candidates []models.Restaurant) ([]models.Recommendation, error) {
	var picks []models.Recommendation
	if err := json.Unmarshal([]byte(CleanResponse(raw)), &picks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}

	known := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	recs := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		if known[p.ID] {
			recs = append(recs, p)
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no candidate ids in response", ErrUnparseable)
	}
	return recs, nil
}
