package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// priceRegexp captures the first numeric run of a raw price string,
	// including thousands separators ("3 550,00", "1,299.00").
	priceRegexp = regexp.MustCompile(`\d[\d\s.,\x{00a0}]*`)
	// modelLengthRegexp captures a 3-digit length embedded in a model name.
	modelLengthRegexp = regexp.MustCompile(`\b(\d{3})\b`)
)

// ParsePrice coerces a raw price string to a number, tolerating currency
// symbols, thousands separators and both "." and "," decimal marks.
// Returns false when no number can be extracted.
//
// Examples:
//
//	"3 550,00 ₾"  → 3550
//	"₾.1,855.00"  → 1855
//	"1700"        → 1700
func ParsePrice(raw string) (float64, bool) {
	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0, false
	}

	s := strings.TrimRight(joinThousands(match), ".,")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	sep := lastComma
	if lastDot > sep {
		sep = lastDot
	}

	if sep >= 0 {
		frac := s[sep+1:]
		intPart := stripSeparators(s[:sep])
		if len(frac) <= 2 {
			// trailing group of 1-2 digits is a decimal part
			s = intPart + "." + frac
		} else {
			// separators are thousands marks only
			s = intPart + stripSeparators(frac)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func stripSeparators(s string) string {
	return strings.NewReplacer(",", "", ".", "").Replace(s)
}

// joinThousands removes spaces acting as thousands separators. A space
// bridges two digit runs only when exactly 3 digits follow it, so
// "3 550,00" reads as one number while "2800 1600" stops at the first.
func joinThousands(match string) string {
	var b strings.Builder
	runes := []rune(match)

	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			continue
		}

		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		k := j
		for k < len(runes) && unicode.IsDigit(runes[k]) {
			k++
		}
		if k-j != 3 {
			break
		}
		i = j - 1
	}

	return b.String()
}

// ParseLengths extracts all distinct ski lengths from raw size strings
// ("185", "185cm", "176 სმ", "170, 177, 184"), keeping only values inside
// the [minCM, maxCM] plausibility band. Encounter order is preserved.
func ParseLengths(values []string, minCM, maxCM int) []int {
	var lengths []int
	seen := make(map[int]struct{})

	for _, v := range values {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return ' '
		}, v)

		for _, chunk := range strings.Fields(clean) {
			if len(chunk) < 2 {
				continue
			}
			n, err := strconv.Atoi(chunk)
			if err != nil {
				continue
			}
			if n < minCM || n > maxCM {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			lengths = append(lengths, n)
		}
	}

	return lengths
}

// LengthFromModel tries to recover a ski length from a 3-digit number in
// the model name. Used as a fallback when a listing exposes no explicit
// size options.
func LengthFromModel(model string, minCM, maxCM int) (int, bool) {
	m := modelLengthRegexp.FindStringSubmatch(model)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < minCM || n > maxCM {
		return 0, false
	}
	return n, true
}

// SplitTitle splits a free-text listing title into brand and model.
// The brand is the first token when it matches the controlled brand list
// (case-insensitive); the model is the remaining text. An unrecognized
// first token yields an empty brand and the full title as model, so no
// listing is ever dropped over branding.
func SplitTitle(title string, brands []string) (brand, model string) {
	title = NormalizeText(title)
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return "", ""
	}

	first := strings.ToLower(fields[0])
	for _, b := range brands {
		if strings.ToLower(b) == first {
			return b, strings.TrimSpace(strings.Join(fields[1:], " "))
		}
	}
	return "", title
}

// NormalizeText strips leading/trailing whitespace and collapses internal
// whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
