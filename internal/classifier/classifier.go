// Package classifier assigns spending categories to parsed receipt items
// using bilingual keyword matching plus approximate string matching. It is
// a greedy, explainable, per-item classifier: no cross-item context and no
// learned weights, chosen for predictability.
package classifier

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

const (
	keywordScore   = 2.0
	fuzzyScore     = 1.0
	fuzzyThreshold = 0.7
	// Short words fuzzy-match too eagerly; both sides must be longer.
	fuzzyMinLen = 3
	// Score that maps to full confidence.
	confidenceCeiling = 10.0
)

// Category is one spending category with its keyword lists. Keywords are
// English, KeywordsLocalized their Hindi counterparts.
type Category struct {
	Name              string
	Keywords          []string
	KeywordsLocalized []string
}

// Config is the immutable classification table, constructed once at
// startup and shared by reference across concurrent pipeline runs.
type Config struct {
	Categories []Category
	Fallback   string
}

// DefaultConfig returns the built-in bilingual category table.
func DefaultConfig() *Config {
	return &Config{
		Fallback: "miscellaneous",
		Categories: []Category{
			{
				Name:              "groceries",
				Keywords:          []string{"apple", "banana", "onion", "potato", "tomato", "rice", "atta", "flour", "dal", "sugar", "salt", "oil", "bread", "eggs", "vegetable", "fruit"},
				KeywordsLocalized: []string{"सेब", "केला", "प्याज", "आलू", "टमाटर", "चावल", "आटा", "दाल", "चीनी", "नमक", "तेल", "सब्जी", "फल"},
			},
			{
				Name:              "dairy",
				Keywords:          []string{"milk", "curd", "yogurt", "paneer", "butter", "ghee", "cheese", "cream"},
				KeywordsLocalized: []string{"दूध", "दही", "पनीर", "मक्खन", "घी"},
			},
			{
				Name:              "beverages",
				Keywords:          []string{"tea", "coffee", "juice", "soda", "cola", "water", "lassi"},
				KeywordsLocalized: []string{"चाय", "कॉफी", "जूस", "पानी", "लस्सी"},
			},
			{
				Name:              "snacks",
				Keywords:          []string{"chips", "biscuit", "cookie", "namkeen", "chocolate", "candy", "wafer"},
				KeywordsLocalized: []string{"चिप्स", "बिस्कुट", "नमकीन", "चॉकलेट"},
			},
			{
				Name:              "household",
				Keywords:          []string{"detergent", "soap", "cleaner", "broom", "tissue", "napkin", "matchbox", "candle"},
				KeywordsLocalized: []string{"साबुन", "झाड़ू", "मोमबत्ती"},
			},
			{
				Name:              "personal_care",
				Keywords:          []string{"shampoo", "toothpaste", "toothbrush", "lotion", "deodorant", "razor", "sanitizer"},
				KeywordsLocalized: []string{"शैम्पू", "टूथपेस्ट"},
			},
			{
				Name:              "medicines",
				Keywords:          []string{"tablet", "syrup", "capsule", "ointment", "bandage", "paracetamol"},
				KeywordsLocalized: []string{"दवा", "गोली"},
			},
		},
	}
}

// Classifier scores items against an immutable category table.
type Classifier struct {
	config *Config
}

// New creates a classifier over the given table; a nil config uses the
// built-in default.
func New(config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig()
	}
	return &Classifier{config: config}
}

// Classify assigns each item its best-guess category with a normalized
// confidence in [0,1]. Items scoring zero everywhere get the fallback
// category with confidence zero. Classification never fails.
func (c *Classifier) Classify(items []domain.ParsedItem) []domain.CategorizedItem {
	out := make([]domain.CategorizedItem, 0, len(items))
	for _, item := range items {
		category, score := c.bestCategory(item)
		confidence := score / confidenceCeiling
		if confidence > 1.0 {
			confidence = 1.0
		}
		out = append(out, domain.CategorizedItem{
			ParsedItem:         item,
			Category:           category,
			CategoryConfidence: confidence,
		})
	}
	return out
}

// bestCategory returns the strictly highest-scoring category; ties keep
// the first-encountered category in table order.
func (c *Classifier) bestCategory(item domain.ParsedItem) (string, float64) {
	name := strings.ToLower(item.Name)
	nameWords := strings.Fields(name)
	localized := item.NameLocalized

	best := c.config.Fallback
	bestScore := 0.0

	for _, cat := range c.config.Categories {
		score := scoreCategory(cat, name, nameWords, localized)
		if score > bestScore {
			best = cat.Name
			bestScore = score
		}
	}

	return best, bestScore
}

func scoreCategory(cat Category, name string, nameWords []string, localized string) float64 {
	var score float64

	for _, kw := range cat.Keywords {
		if strings.Contains(name, kw) {
			score += keywordScore
		}
		for _, w := range nameWords {
			if len([]rune(kw)) > fuzzyMinLen && len([]rune(w)) > fuzzyMinLen && Similarity(kw, w) > fuzzyThreshold {
				score += fuzzyScore
			}
		}
	}

	if localized != "" {
		for _, kw := range cat.KeywordsLocalized {
			if strings.Contains(localized, kw) {
				score += keywordScore
			}
		}
	}

	return score
}

// Similarity is the normalized edit-distance similarity between two
// strings: 1 - levenshtein(a,b)/max(len(a),len(b)). It is symmetric and
// returns 1 for two empty strings.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1.0 - float64(dist)/float64(maxLen)
}
