package classifier

import (
	"testing"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

func TestClassifyExactKeywordWinsOwningCategory(t *testing.T) {
	cls := New(nil)

	items := cls.Classify([]domain.ParsedItem{{Name: "Apple", Quantity: 1, UnitPrice: 50, TotalPrice: 50}})
	if len(items) != 1 {
		t.Fatalf("Classify() returned %d items, want 1", len(items))
	}

	if items[0].Category != "groceries" {
		t.Errorf("category = %q, want groceries", items[0].Category)
	}
	if items[0].CategoryConfidence <= 0 {
		t.Errorf("confidence = %v, want > 0", items[0].CategoryConfidence)
	}
}

func TestClassifyUnknownNameGetsFallback(t *testing.T) {
	cls := New(nil)

	items := cls.Classify([]domain.ParsedItem{{Name: "Xyzzy123"}})
	if items[0].Category != "miscellaneous" {
		t.Errorf("category = %q, want miscellaneous fallback", items[0].Category)
	}
	if items[0].CategoryConfidence != 0 {
		t.Errorf("confidence = %v, want 0", items[0].CategoryConfidence)
	}
}

func TestClassifyConfidenceBounds(t *testing.T) {
	cls := New(nil)

	names := []string{
		"Apple", "Xyzzy123", "Milk Butter Ghee Paneer Curd Cheese Cream",
		"chips biscuit chocolate namkeen candy wafer cookie", "दूध", "",
	}
	items := make([]domain.ParsedItem, 0, len(names))
	for _, n := range names {
		items = append(items, domain.ParsedItem{Name: n, NameLocalized: n})
	}

	for _, item := range cls.Classify(items) {
		if item.CategoryConfidence < 0 || item.CategoryConfidence > 1 {
			t.Errorf("item %q: confidence = %v, want within [0,1]", item.Name, item.CategoryConfidence)
		}
	}
}

func TestClassifyFuzzyMatchTypo(t *testing.T) {
	cls := New(nil)

	// OCR often misreads a letter; "shampo" should still land in
	// personal care via approximate matching.
	items := cls.Classify([]domain.ParsedItem{{Name: "shampo bottle"}})
	if items[0].Category != "personal_care" {
		t.Errorf("category = %q, want personal_care", items[0].Category)
	}
}

func TestClassifyLocalizedKeyword(t *testing.T) {
	cls := New(nil)

	items := cls.Classify([]domain.ParsedItem{{Name: "दूध", NameLocalized: "दूध"}})
	if items[0].Category != "dairy" {
		t.Errorf("category = %q, want dairy", items[0].Category)
	}
}

func TestClassifyTieKeepsFirstCategory(t *testing.T) {
	cfg := &Config{
		Fallback: "other",
		Categories: []Category{
			{Name: "first", Keywords: []string{"combo"}},
			{Name: "second", Keywords: []string{"combo"}},
		},
	}
	cls := New(cfg)

	items := cls.Classify([]domain.ParsedItem{{Name: "combo pack"}})
	if items[0].Category != "first" {
		t.Errorf("category = %q, want first-encountered on tie", items[0].Category)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"apple", "aple"},
		{"shampoo", "shampo"},
		{"", "milk"},
		{"दूध", "दही"},
		{"same", "same"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity(%q,%q) != Similarity(%q,%q)", p[0], p[1], p[1], p[0])
		}
	}
}

func TestSimilarityValues(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"apple", "apple", 1.0},
		{"", "", 1.0},
		{"abcd", "wxyz", 0.0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q,%q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClassifyShortWordsNeverFuzzyMatch(t *testing.T) {
	cfg := &Config{
		Fallback: "other",
		Categories: []Category{
			{Name: "teas", Keywords: []string{"tea"}},
		},
	}
	cls := New(cfg)

	// "teh" is one edit from "tea" but both are too short for fuzzy
	// matching, and "teh" does not contain "tea".
	items := cls.Classify([]domain.ParsedItem{{Name: "teh"}})
	if items[0].Category != "other" {
		t.Errorf("category = %q, want fallback (short-word fuzzy suppressed)", items[0].Category)
	}
}
