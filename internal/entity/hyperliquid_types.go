package entity

// HyperliquidMarginSummary is the margin section of a clearinghouse state
// response. Monetary fields are decimal strings denominated in USDC.
type HyperliquidMarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
	TotalMarginUsed string `json:"totalMarginUsed"`
}

// HyperliquidClearinghouseState mirrors the info API's clearinghouseState
// response for one user.
type HyperliquidClearinghouseState struct {
	MarginSummary      HyperliquidMarginSummary `json:"marginSummary"`
	CrossMarginSummary HyperliquidMarginSummary `json:"crossMarginSummary"`
	Withdrawable       string                   `json:"withdrawable"`
	Time               int64                    `json:"time"`
}

// HyperliquidInfoRequest is the request body of the info API.
type HyperliquidInfoRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}
