package disambig

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	yesPattern     = regexp.MustCompile(`\b(yes|yep|yeah|sure|proceed|go ahead|do it|start|confirm|okay|ok)\b`)
	noPattern      = regexp.MustCompile(`\b(no|nope|cancel|stop|don't|do not|abort)\b`)
	firstPattern   = regexp.MustCompile(`^first\b|\b1(st)?\b`)
	secondPattern  = regexp.MustCompile(`^second\b|\b2(nd)?\b`)
	thirdPattern   = regexp.MustCompile(`^third\b|\b3(rd)?\b`)
	leadingNumber  = regexp.MustCompile(`^([0-9]+)`)
	liquidityToken = regexp.MustCompile(`\$?([0-9]+(?:\.[0-9]+)?)(\s*[mk])?`)
	nonAlnum       = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// IsYes reports whether the utterance contains an affirmation word.
func IsYes(text string) bool {
	return yesPattern.MatchString(strings.ToLower(text))
}

// IsNo reports whether the utterance contains a negation word.
func IsNo(text string) bool {
	return noPattern.MatchString(strings.ToLower(text))
}

// wordToIndex maps an ordinal or number utterance to a zero-based index.
// Returns -1 when the utterance carries no usable number.
func wordToIndex(text string) int {
	s := strings.ToLower(text)
	if firstPattern.MatchString(s) {
		return 0
	}
	if secondPattern.MatchString(s) {
		return 1
	}
	if thirdPattern.MatchString(s) {
		return 2
	}
	if m := leadingNumber.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return n - 1
		}
	}
	return -1
}

// parseLiquidity extracts an approximate dollar figure from the utterance.
// Accepts an optional leading $ and an optional k/m scale suffix.
func parseLiquidity(text string) (float64, bool) {
	m := liquidityToken.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.TrimSpace(m[2]) {
	case "m":
		val *= 1_000_000
	case "k":
		val *= 1_000
	}
	return val, true
}

// pickByAddrHint matches a fragment of an address against the candidates.
// The utterance is stripped to alphanumerics; fragments shorter than 3
// characters are ignored. The last 6 characters double as a suffix probe
// so "ends in 9kQ4wxyz" style replies land.
func pickByAddrHint(text string, list []Candidate) int {
	t := nonAlnum.ReplaceAllString(text, "")
	if len(t) < 3 {
		return -1
	}
	last6 := t
	if len(t) > 6 {
		last6 = t[len(t)-6:]
	}
	upper := strings.ToUpper(t)
	last6 = strings.ToUpper(last6)
	for i, c := range list {
		addr := strings.ToUpper(c.Address)
		if addr == "" {
			continue
		}
		if strings.HasSuffix(addr, upper) || strings.HasPrefix(addr, upper) ||
			strings.Contains(addr, upper) || strings.HasSuffix(addr, last6) {
			return i
		}
	}
	return -1
}

// pickByLiquidity selects the candidate whose liquidity is numerically
// closest to the requested value.
func pickByLiquidity(val float64, list []Candidate) int {
	best := -1
	bestDiff := math.Inf(1)
	for i, c := range list {
		diff := math.Abs(c.LiquidityUSD - val)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// selectCandidate resolves a free-form utterance to a candidate index.
// Matchers run in a fixed order: ordinal, address hint, liquidity.
// Returns -1 when nothing matches.
func selectCandidate(text string, list []Candidate) int {
	if len(list) == 0 {
		return -1
	}
	if idx := wordToIndex(text); idx >= 0 && idx < len(list) {
		return idx
	}
	if idx := pickByAddrHint(text, list); idx >= 0 {
		return idx
	}
	if val, ok := parseLiquidity(text); ok {
		if idx := pickByLiquidity(val, list); idx >= 0 {
			return idx
		}
	}
	return -1
}

// shortAddr renders an address as its first 4 and last 4 characters.
func shortAddr(address string) string {
	if address == "" {
		return ""
	}
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "…" + address[len(address)-4:]
}

// formatLiquidity renders a dollar figure the way it is spoken:
// $2.3m, $480k, or $950.
func formatLiquidity(liq float64) string {
	switch {
	case liq >= 1_000_000:
		return fmt.Sprintf("$%.1fm", liq/1_000_000)
	case liq >= 1_000:
		return fmt.Sprintf("$%.0fk", liq/1_000)
	default:
		return fmt.Sprintf("$%.0f", liq)
	}
}
