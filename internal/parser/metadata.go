package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
)

// merchantPattern is one known-merchant rule for a supported language.
type merchantPattern struct {
	re        *regexp.Regexp
	localized bool
}

// Known merchant names, scanned in order against each line top-to-bottom.
// English patterns cover common Indian retail chains; localized patterns
// cover their Devanagari renderings.
var merchantPatterns = []merchantPattern{
	{re: regexp.MustCompile(`(?i)\b(big bazaar|reliance fresh|reliance smart|d-?mart|more supermarket|spencer'?s|easyday|star bazaar|nature'?s basket|vishal mega mart|nilgiris)\b`)},
	{re: regexp.MustCompile(`(बिग बाज़ार|रिलायंस फ्रेश|रिलायंस स्मार्ट|डी ?मार्ट|मोर सुपरमार्केट|विशाल मेगा मार्ट)`), localized: true},
}

var (
	// Indian PIN codes are six digits and never start with zero.
	rePostalCode = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)

	reBannerLine = regexp.MustCompile(`(?i)\b(receipt|invoice|bill|tax invoice)\b`)
	reDateLine   = regexp.MustCompile(`^\s*\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\s*$`)
	reTimeLine   = regexp.MustCompile(`(?i)^\s*\d{1,2}:\d{2}(:\d{2})?\s*(am|pm)?\s*$`)

	reReceiptNoLabel = regexp.MustCompile(`(?i)\b(?:receipt|invoice|bill)\s*(?:no\.?|number|#)?\s*[:#]?\s*([A-Za-z0-9-]{3,})`)
	reReceiptNoBare  = regexp.MustCompile(`\b[0-9]{6,}\b`)
	reReceiptNoHash  = regexp.MustCompile(`#([A-Za-z0-9-]+)`)

	reDateISO   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reDateSlash = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	reDateDash  = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`)
	reTimeOfDay = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// ExtractStoreInfo recovers merchant identity from the raw text. Every
// field is best-effort; an empty result is a valid outcome.
func ExtractStoreInfo(text string) domain.StoreInfo {
	lines := splitLines(text)
	info := domain.StoreInfo{}

	for _, line := range lines {
		for _, p := range merchantPatterns {
			m := p.re.FindString(line)
			if m == "" {
				continue
			}
			if p.localized {
				info.NameLocalized = m
			} else {
				info.Name = m
			}
			break
		}
		if info.Name != "" || info.NameLocalized != "" {
			break
		}
	}

	// Fall back to the first line that is not a date, time or banner
	// line, assuming receipts print the merchant name on top.
	if info.Name == "" && info.NameLocalized == "" {
		for _, line := range lines {
			if reBannerLine.MatchString(line) || reDateLine.MatchString(line) || reTimeLine.MatchString(line) {
				continue
			}
			if containsDevanagari(line) {
				info.NameLocalized = line
			} else {
				info.Name = line
			}
			break
		}
	}

	for _, line := range lines {
		if rePostalCode.MatchString(line) {
			info.Address = line
			break
		}
	}

	return info
}

// ExtractMetadata recovers the receipt number and purchase timestamp from
// the raw text. Both fields are independently optional.
func ExtractMetadata(text string) domain.ReceiptMetadata {
	meta := domain.ReceiptMetadata{
		ReceiptNumber: extractReceiptNumber(text),
	}
	if ts, ok := extractDateTime(text); ok {
		meta.PurchaseDateTime = &ts
	}
	return meta
}

func extractReceiptNumber(text string) string {
	if m := reReceiptNoLabel.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := reReceiptNoBare.FindString(text); m != "" {
		return m
	}
	if m := reReceiptNoHash.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// extractDateTime finds the first date in ISO, slash or dash form and
// combines it with the first time-of-day token when one exists. A bare
// date with no time is kept as-is at midnight.
func extractDateTime(text string) (time.Time, bool) {
	var year, month, day int
	found := false

	if m := reDateISO.FindStringSubmatch(text); m != nil {
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
		found = true
	} else if m := reDateSlash.FindStringSubmatch(text); m != nil {
		day, month, year = atoi(m[1]), atoi(m[2]), normalizeYear(atoi(m[3]))
		found = true
	} else if m := reDateDash.FindStringSubmatch(text); m != nil {
		day, month, year = atoi(m[1]), atoi(m[2]), atoi(m[3])
		found = true
	}

	if !found || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	hour, minute, second := 0, 0, 0
	if m := reTimeOfDay.FindStringSubmatch(text); m != nil {
		hour, minute = atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			second = atoi(m[3])
		}
		switch strings.ToLower(m[4]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 || second > 59 {
			hour, minute, second = 0, 0, 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func normalizeYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
