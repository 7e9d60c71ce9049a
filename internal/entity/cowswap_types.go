package entity

// CowSwapQuoteRequest is the body of the CoW Protocol /quote endpoint. Amounts
// are decimal strings of raw token units.
type CowSwapQuoteRequest struct {
	SellToken           string `json:"sellToken"`
	BuyToken            string `json:"buyToken"`
	From                string `json:"from"`
	Receiver            string `json:"receiver"`
	SellAmountBeforeFee string `json:"sellAmountBeforeFee"`
	Kind                string `json:"kind"` // always "sell" for pricing quotes
	PriceQuality        string `json:"priceQuality,omitempty"`
}

// CowSwapQuote is the order section of a /quote response.
type CowSwapQuote struct {
	SellToken  string `json:"sellToken"`
	BuyToken   string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
	BuyAmount  string `json:"buyAmount"`
	FeeAmount  string `json:"feeAmount"`
}

// CowSwapQuoteResponse wraps the full /quote response.
type CowSwapQuoteResponse struct {
	Quote      CowSwapQuote `json:"quote"`
	Expiration string       `json:"expiration"`
	ID         int64        `json:"id"`
}
