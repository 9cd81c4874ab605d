// Package matcher pairs markets across the two venues so that a probability
// comparison always has a counterpart. Matching is heuristic: normalized
// title containment first, then a deterministic positional assignment so
// downstream stages never see an unmatched market while counterparts exist.
package matcher

import (
	"regexp"
	"strings"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// DefaultTopN bounds how many primary-venue markets get paired per cycle.
const DefaultTopN = 12

// Pairing binds a primary-venue market to its Polymarket counterpart. Poly is
// nil when no counterpart list was available at all.
type Pairing struct {
	Market     domain.Market
	Poly       *domain.PolyMarket
	Confidence string
}

var nonTitleRunes = regexp.MustCompile(`[^a-z0-9\p{Han}\s]`)
var spaces = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases a title, strips everything outside letters,
// digits, Han characters and spaces, and collapses runs of whitespace. Two
// titles that normalize equal are considered the same market question.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = nonTitleRunes.ReplaceAllString(t, "")
	t = spaces.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Pair matches up to topN markets against the Polymarket list. A pairing is
// title-confident when one normalized title contains the other; otherwise the
// counterpart is assigned positionally (index modulo list length) so the
// assignment is stable across cycles for a stable input order.
func Pair(markets []domain.Market, poly []domain.PolyMarket, topN int) []Pairing {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(markets) > topN {
		markets = markets[:topN]
	}

	normPoly := make([]string, len(poly))
	for i := range poly {
		normPoly[i] = NormalizeTitle(poly[i].Title)
	}

	pairings := make([]Pairing, 0, len(markets))
	for idx, m := range markets {
		p := Pairing{Market: m, Confidence: domain.MatchPositional}

		if len(poly) == 0 {
			pairings = append(pairings, p)
			continue
		}

		normTitle := NormalizeTitle(m.Title)
		matched := -1
		if normTitle != "" {
			for i, cand := range normPoly {
				if cand == "" {
					continue
				}
				if strings.Contains(cand, normTitle) || strings.Contains(normTitle, cand) {
					matched = i
					break
				}
			}
		}

		if matched >= 0 {
			p.Poly = &poly[matched]
			p.Confidence = domain.MatchTitle
		} else {
			p.Poly = &poly[idx%len(poly)]
		}
		pairings = append(pairings, p)
	}
	return pairings
}
