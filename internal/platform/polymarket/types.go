package polymarket

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// flexFloat unmarshals from a JSON number or a numeric string, since the
// Gamma API sends volume and prices in both encodings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// APIToken is one outcome token of a Gamma market.
type APIToken struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	Tag           string      `json:"tag"`
	ConditionID   string      `json:"condition_id"`
	Tokens        []APIToken  `json:"tokens"`
	OutcomePrices []flexFloat `json:"outcome_prices"`
	Price         flexFloat   `json:"price"`
	Volume        flexFloat   `json:"volume"`
	Liquidity     flexFloat   `json:"liquidity"`
}

// ToDomain normalizes the API market into a domain.PolyMarket. idx feeds the
// synthesized ordinal ID when the payload carries none.
func (m *APIMarket) ToDomain(idx int) domain.PolyMarket {
	var yesTokenID, noTokenID string
	for _, t := range m.Tokens {
		switch strings.ToLower(t.Outcome) {
		case "yes":
			if yesTokenID == "" {
				yesTokenID = t.TokenID
			}
		case "no":
			if noTokenID == "" {
				noTokenID = t.TokenID
			}
		}
	}
	if yesTokenID == "" && len(m.Tokens) > 0 {
		yesTokenID = m.Tokens[0].TokenID
	}
	if noTokenID == "" && len(m.Tokens) > 1 {
		noTokenID = m.Tokens[1].TokenID
	}

	var yesPrice, noPrice float64
	if len(m.OutcomePrices) > 0 {
		yesPrice = float64(m.OutcomePrices[0])
	} else {
		yesPrice = float64(m.Price)
	}
	if len(m.OutcomePrices) > 1 {
		noPrice = float64(m.OutcomePrices[1])
	}

	prob := yesPrice
	if prob == 0 {
		prob = 0.5
	}
	prob = math.Max(0.05, math.Min(0.95, prob))

	id := m.ID
	if id == "" {
		id = m.ConditionID
	}
	if id == "" {
		id = fmt.Sprintf("poly-%d", idx)
	}

	title := m.Question
	if title == "" {
		title = m.Title
	}
	if title == "" {
		title = m.Slug
	}
	if title == "" {
		title = "Polymarket market"
	}

	category := m.Category
	if category == "" {
		category = m.Tag
	}
	if category == "" {
		category = "General"
	}

	conditionID := m.ConditionID
	if conditionID == "" {
		conditionID = m.ID
	}

	volume := float64(m.Volume)
	if volume == 0 {
		volume = float64(m.Liquidity)
	}

	return domain.PolyMarket{
		ID:          id,
		Title:       title,
		Category:    category,
		Probability: prob,
		TokenID:     yesTokenID,
		YesTokenID:  yesTokenID,
		NoTokenID:   noTokenID,
		ConditionID: conditionID,
		YesPrice:    yesPrice,
		NoPrice:     noPrice,
		Volume24h:   volume,
	}
}
