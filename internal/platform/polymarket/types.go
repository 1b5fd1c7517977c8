package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/alanyoungcy/whalecopybot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrderResult is the CLOB's response to an order submission.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	TransactID  string `json:"transactID,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// ToDomainOrderResult converts the API response to the domain result.
func (r *APIOrderResult) ToDomainOrderResult() domain.OrderResult {
	return domain.OrderResult{
		Success: r.Success,
		OrderID: r.OrderID,
		Status:  r.Status,
		Message: r.ErrorMsg,
	}
}

// APIPrice is the CLOB /price response.
type APIPrice struct {
	Price string `json:"price"`
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API,
// reduced to the fields the bot reads.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	ActiveFromAPI flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"` // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	Tokens        []Token  `json:"tokens"`
}

// Token represents a token entry inside the Gamma API market response.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// MarketInfo is the subset of market metadata the bot cares about: enough
// to turn a bare condition ID into something readable.
type MarketInfo struct {
	ID          string
	ConditionID string
	Question    string
	Slug        string
	Active      bool
	Closed      bool
}

// ToMarketInfo converts a Gamma APIMarket, defaulting the question so callers
// never render an empty title.
func (m *APIMarket) ToMarketInfo() MarketInfo {
	info := MarketInfo{
		ID:          m.ID,
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Slug:        m.Slug,
		Active:      bool(m.ActiveFromAPI),
		Closed:      m.Closed,
	}
	if info.Question == "" {
		info.Question = "Unknown"
	}
	return info
}
