// Package shortcode converts public Instagram post tokens into the numeric
// media identifiers the private API expects. A shortcode is a base-64
// positional encoding over a fixed 64-symbol alphabet; decoding is pure and
// needs no session.
package shortcode

import (
	"fmt"
	"math/big"
	"regexp"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Long shortcodes decode past 2^53, so the value is kept in a big.Int.
var base = big.NewInt(64)

var urlPattern = regexp.MustCompile(`/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)

var digitValue = buildDigitTable()

func buildDigitTable() map[rune]int64 {
	table := make(map[rune]int64, len(alphabet))
	for i, r := range alphabet {
		table[r] = int64(i)
	}
	return table
}

// InvalidShortcodeError reports a character outside the shortcode alphabet.
type InvalidShortcodeError struct {
	Shortcode string
	Char      rune
}

func (e *InvalidShortcodeError) Error() string {
	return fmt.Sprintf("shortcode %q contains invalid character %q", e.Shortcode, e.Char)
}

// InvalidURLError reports a URL with no /p/, /reel/ or /tv/ segment.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("url %q does not contain a /p/, /reel/ or /tv/ segment", e.URL)
}

// Decode converts a shortcode into its numeric media identifier,
// most-significant digit first.
func Decode(code string) (*big.Int, error) {
	if code == "" {
		return nil, &InvalidShortcodeError{Shortcode: code}
	}

	id := new(big.Int)
	for _, r := range code {
		v, ok := digitValue[r]
		if !ok {
			return nil, &InvalidShortcodeError{Shortcode: code, Char: r}
		}
		id.Mul(id, base)
		id.Add(id, big.NewInt(v))
	}
	return id, nil
}

// FromURL extracts the shortcode from a post, reel or TV URL.
func FromURL(rawURL string) (string, error) {
	match := urlPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", &InvalidURLError{URL: rawURL}
	}
	return match[1], nil
}

// MediaID resolves a post URL directly to its media identifier.
func MediaID(rawURL string) (*big.Int, error) {
	code, err := FromURL(rawURL)
	if err != nil {
		return nil, err
	}
	return Decode(code)
}
