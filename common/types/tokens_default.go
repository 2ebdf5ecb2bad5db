package types

// SettlementSymbol is the symbol of the platform's own settlement token. It
// resolves through each chain's executor config rather than the public
// registry tables.
const SettlementSymbol = "TXTC"

// DefaultTokenRegistry returns the built-in token and chain tables covering
// the mainnets the aggregator supports plus the Sepolia testnet.
func DefaultTokenRegistry() *TokenRegistry {
	return NewTokenRegistry(defaultTokenAddresses, defaultTokenDecimals, defaultChainIDs)
}

var defaultChainIDs = map[string]uint64{
	"ethereum":  1,
	"eth":       1,
	"polygon":   137,
	"matic":     137,
	"arbitrum":  42161,
	"arb":       42161,
	"optimism":  10,
	"op":        10,
	"base":      8453,
	"avalanche": 43114,
	"avax":      43114,
	"bsc":       56,
	"bnb":       56,
	"sepolia":   11155111,
}

var defaultTokenAddresses = map[string]map[uint64]string{
	"USDC": {
		1:     "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		137:   "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		42161: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		10:    "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85",
		8453:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		43114: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		56:    "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	},
	"USDT": {
		1:     "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		137:   "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
		42161: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
		10:    "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
		8453:  "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
		56:    "0x55d398326f99059fF775485246999027B3197955",
	},
	"ETH": {
		1:        ZeroAddress,
		42161:    ZeroAddress,
		10:       ZeroAddress,
		8453:     ZeroAddress,
		11155111: ZeroAddress,
	},
	"MATIC": {
		137: ZeroAddress,
	},
}

var defaultTokenDecimals = map[string]int{
	"USDC":  6,
	"USDT":  6,
	"ETH":   18,
	"MATIC": 18,
	"AVAX":  18,
	"BNB":   18,
}
