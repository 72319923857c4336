package model

// TokenMetadata captures ERC-20 metadata, cached for the process lifetime.
type TokenMetadata struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
