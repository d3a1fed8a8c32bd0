// File: internal/state/normalize.go
package state

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// Region is the part of the screen an output is attributed to.
type Region string

const (
	RegionHeader  Region = "Header"
	RegionMain    Region = "Main"
	RegionResults Region = "Results"
	RegionFooter  Region = "Footer"
	RegionModal   Region = "Modal"
	RegionUnknown Region = "Unknown"
)

// Volatility separates structural elements from content derived ones.
type Volatility string

const (
	Stable   Volatility = "Stable"
	Volatile Volatility = "Volatile"
)

var scriptMarkers = []string{"function(", "var ", "window.", "document."}

// NormalizeOutputText reduces raw output text to a comparable form.
// It returns false for empty text, script fragments, token-like noise
// and anything shorter than three characters once collapsed.
func NormalizeOutputText(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	for _, marker := range scriptMarkers {
		if strings.Contains(text, marker) {
			return "", false
		}
	}

	noise := 0
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			noise++
		}
	}
	if float64(noise)/float64(len(text)) > 0.6 {
		return "", false
	}

	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if len(normalized) < 3 {
		return "", false
	}
	return normalized, true
}

// InferRegion places an output by keyword. Main is the fallback.
func InferRegion(el screen.Element) Region {
	text := strings.ToLower(el.Label)
	switch {
	case strings.Contains(text, "footer"), strings.Contains(text, "privacy"), strings.Contains(text, "terms"):
		return RegionFooter
	case strings.Contains(text, "header"), strings.Contains(text, "sign in"), strings.Contains(text, "login"):
		return RegionHeader
	default:
		return RegionMain
	}
}

// Fingerprint is the hex SHA-1 of normalized text.
func Fingerprint(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
