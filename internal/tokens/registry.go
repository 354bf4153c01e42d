// Package tokens holds the supported-token registry and token identifier
// normalization shared by the API and the recommendation engine.
package tokens

import (
	"regexp"
	"strings"

	"github.com/mevshield/slippage-engine/pkg/errors"
)

// Token is one entry in the supported-token registry.
type Token struct {
	ID      string // price index id, e.g. "ethereum"
	Symbol  string
	Address string // lowercase 0x address
}

// Supported is the token registry served by the market data endpoints. Order
// matters: it is the display order.
var Supported = []Token{
	{ID: "ethereum", Symbol: "ETH", Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"},
	{ID: "pepe", Symbol: "PEPE", Address: "0x6982508145454ce325ddbe47a25d4ec3d2311933"},
	{ID: "shiba-inu", Symbol: "SHIB", Address: "0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce"},
}

// BySymbol finds a supported token by case-insensitive symbol.
func BySymbol(symbol string) (Token, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range Supported {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return Token{}, false
}

var (
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	symbolRe  = regexp.MustCompile(`^[A-Za-z0-9]{1,11}$`)
)

// Normalize converts a caller-supplied token identifier into the form the
// engine queries with: addresses are lowercased (checksum-insensitive), known
// symbols map to their address, unknown short symbols pass through uppercased
// so resolution can degrade to the unknown-pair tier. Anything else is an
// invalid-input error.
func Normalize(identifier string) (string, error) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return "", errors.InvalidInput("token identifier is empty")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !addressRe.MatchString(s) {
			return "", errors.InvalidInput("token %q is not a valid 0x address", identifier)
		}
		return strings.ToLower(s), nil
	}
	if !symbolRe.MatchString(s) {
		return "", errors.InvalidInput("token %q is neither a symbol nor a 0x address", identifier)
	}
	if t, ok := BySymbol(s); ok {
		return t.Address, nil
	}
	return strings.ToUpper(s), nil
}
