package entity

// HermesPrice is one fixed-point price from the Hermes API: the integer Price
// string scaled by 10^Expo (Expo is typically negative).
type HermesPrice struct {
	Price       string `json:"price"`
	Conf        string `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

// HermesParsedPrice is one feed entry from /v2/updates/price/latest.
type HermesParsedPrice struct {
	ID       string      `json:"id"`
	Price    HermesPrice `json:"price"`
	EmaPrice HermesPrice `json:"ema_price"`
}

// HermesLatestResponse wraps the latest-price response body.
type HermesLatestResponse struct {
	Parsed []HermesParsedPrice `json:"parsed"`
}
