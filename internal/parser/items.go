// Package parser converts raw recognized receipt text into purchase lines
// and best-effort store/purchase metadata. Lines that match nothing are
// dropped silently; no input ever raises.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// Header/footer rules, evaluated case-insensitively before any grammar.
// Lines matching one of these are never considered purchase items.
var skipPatterns = []*regexp.Regexp{
	// Totals, taxes and payment lines.
	regexp.MustCompile(`(?i)\b(sub\s?total|total|tax|gst|cgst|sgst|vat|cash|card|change|balance|tender|amount due)\b`),
	// Receipt and invoice banners.
	regexp.MustCompile(`(?i)\b(receipt|invoice|bill|tax invoice|duplicate copy)\b`),
	// Courtesy phrases.
	regexp.MustCompile(`(?i)(thank you|thanks|welcome|visit again|see you soon)`),
	// Bare dates and times.
	regexp.MustCompile(`^\s*\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\s*$`),
	regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}(:\d{2})?\s*(am|pm)?\s*$`),
	// Long alphanumeric codes (barcodes, transaction ids).
	regexp.MustCompile(`^\s*[A-Za-z0-9]*\d[A-Za-z0-9]{9,}\s*$`),
	// Address lines carrying a bare postal-code token. Without this a
	// PIN code parses as an implausible bare-total price.
	regexp.MustCompile(`(?:^|\s)[1-9][0-9]{5}(?:\s|$)`),
	// Separator rules.
	regexp.MustCompile(`^\s*[-=_]{3,}\s*$`),
}

// amount matches a price token, permitting thousands separators.
const amount = `([0-9][0-9,]*(?:\.[0-9]+)?)`

// itemGrammar recognizes one fixed line shape. Grammars are tried in
// order and the first match wins.
type itemGrammar struct {
	name  string
	match func(line string) (*domain.ParsedItem, bool)
}

var (
	reQtyAtUnit  = regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d+)?)\s*@\s*` + amount + `\s+` + amount + `$`)
	reQtyPrefix  = regexp.MustCompile(`^(\d+)\s*[xX]\s+(.+?)\s+` + amount + `$`)
	reQtyPcs     = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:\.\d+)?)\s*pcs\.?\s+` + amount + `$`)
	reBareAmount = regexp.MustCompile(`^(.+?)\s+` + amount + `$`)
)

// grammars is the ordered matcher list the parser walks per line.
var grammars = []itemGrammar{
	{
		// e.g. "Basmati Rice 2 @ 120.00 240.00"
		name: "qty_at_unit_total",
		match: func(line string) (*domain.ParsedItem, bool) {
			m := reQtyAtUnit.FindStringSubmatch(line)
			if m == nil {
				return nil, false
			}
			qty, ok1 := parseAmount(m[2])
			unit, ok2 := parseAmount(m[3])
			total, ok3 := parseAmount(m[4])
			if !ok1 || !ok2 || !ok3 {
				return nil, false
			}
			return newItem(m[1], qty, unit, total), true
		},
	},
	{
		// e.g. "3x Milk Packet 90.00"
		name: "qty_prefix",
		match: func(line string) (*domain.ParsedItem, bool) {
			m := reQtyPrefix.FindStringSubmatch(line)
			if m == nil {
				return nil, false
			}
			qty, ok1 := parseAmount(m[1])
			total, ok2 := parseAmount(m[3])
			if !ok1 || !ok2 || qty <= 0 {
				return nil, false
			}
			return newItem(m[2], qty, total/qty, total), true
		},
	},
	{
		// e.g. "Eggs 6 pcs 42.00"
		name: "qty_pcs",
		match: func(line string) (*domain.ParsedItem, bool) {
			m := reQtyPcs.FindStringSubmatch(line)
			if m == nil {
				return nil, false
			}
			qty, ok1 := parseAmount(m[2])
			total, ok2 := parseAmount(m[3])
			if !ok1 || !ok2 || qty <= 0 {
				return nil, false
			}
			return newItem(m[1], qty, total/qty, total), true
		},
	},
	{
		// e.g. "Bread 3.20"; quantity defaults to 1.
		name: "bare_total",
		match: func(line string) (*domain.ParsedItem, bool) {
			m := reBareAmount.FindStringSubmatch(line)
			if m == nil {
				return nil, false
			}
			total, ok := parseAmount(m[2])
			if !ok {
				return nil, false
			}
			return newItem(m[1], 1, total, total), true
		},
	},
}

// ParseItems converts raw multi-line OCR text into an ordered sequence of
// purchase lines. Candidates whose total is zero, negative or unparseable
// are dropped silently; empty input yields an empty slice, never an error.
func ParseItems(text string) []domain.ParsedItem {
	lines := splitLines(text)
	candidates := filterCandidateLines(lines)

	items := make([]domain.ParsedItem, 0, len(candidates))
	for _, line := range candidates {
		for _, g := range grammars {
			item, ok := g.match(line)
			if !ok {
				continue
			}
			if item.TotalPrice > 0 {
				items = append(items, *item)
			}
			break
		}
	}
	return items
}

// splitLines breaks raw text into trimmed, non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// filterCandidateLines discards header/footer lines. The filter is
// idempotent: re-running it on its own output changes nothing.
func filterCandidateLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !isSkippableLine(line) {
			out = append(out, line)
		}
	}
	return out
}

func isSkippableLine(line string) bool {
	for _, p := range skipPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func newItem(name string, qty, unit, total float64) *domain.ParsedItem {
	item := &domain.ParsedItem{
		Name:       strings.TrimSpace(name),
		Quantity:   qty,
		UnitPrice:  unit,
		TotalPrice: total,
	}
	if containsDevanagari(item.Name) {
		item.NameLocalized = item.Name
	}
	return item
}

// parseAmount parses a numeric token after stripping thousands separators.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// containsDevanagari reports whether any rune belongs to the Devanagari
// script, used to tell localized names from Latin ones.
func containsDevanagari(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}
