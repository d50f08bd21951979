// Package dedupe fingerprints captured pages so a batch can flag URLs
// that resolved to near-identical content (mirrors, tracking-parameter
// variants, soft redirects to the same landing page).
package dedupe

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// DefaultThreshold is the Hamming distance at or below which two page
// fingerprints are considered the same content.
const DefaultThreshold = 3

// Fingerprint computes a 64-bit SimHash over the visible text of a
// rendered page. Markup, scripts, and styles do not contribute, so the
// same article served with different chrome still collides.
func Fingerprint(rawHTML string) uint64 {
	words := visibleWords(rawHTML)
	if len(words) == 0 {
		return 0
	}

	shingles := makeShingles(words, 3)
	if len(shingles) == 0 {
		shingles = words
	}

	var vector [64]int
	for _, shingle := range shingles {
		h := fnv.New64a()
		h.Write([]byte(shingle))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other. Zero fingerprints (empty pages) never match anything.
func Similar(a, b uint64, threshold int) bool {
	if a == 0 || b == 0 {
		return false
	}
	return Distance(a, b) <= threshold
}

// visibleWords walks the HTML with the tokenizer and collects word
// tokens from text nodes, skipping script, style, and noscript bodies.
func visibleWords(rawHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var words []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return words
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if skipTag(string(tn)) {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if skipTag(string(tn)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				words = append(words, strings.Fields(string(tokenizer.Text()))...)
			}
		}
	}
}

func skipTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
