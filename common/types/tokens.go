package types

import "strings"

// ZeroAddress marks a chain's native asset in token tables.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenRegistry resolves token symbols to contract addresses per chain and
// carries each token's decimal precision. Read-only after construction.
type TokenRegistry struct {
	addresses map[string]map[uint64]string
	decimals  map[string]int
	chainIDs  map[string]uint64
}

// NewTokenRegistry builds a registry from symbol -> chainID -> address and
// symbol -> decimals tables, plus a chain name -> chain ID table.
func NewTokenRegistry(
	addresses map[string]map[uint64]string,
	decimals map[string]int,
	chainIDs map[string]uint64,
) *TokenRegistry {
	return &TokenRegistry{
		addresses: addresses,
		decimals:  decimals,
		chainIDs:  chainIDs,
	}
}

// ResolveChainID resolves a chain name to its chain ID.
func (r *TokenRegistry) ResolveChainID(chain string) (uint64, bool) {
	id, ok := r.chainIDs[strings.ToLower(strings.TrimSpace(chain))]
	return id, ok
}

// ResolveTokenAddress resolves a token symbol to its contract address on a
// chain. The zero address marks the chain's native asset.
func (r *TokenRegistry) ResolveTokenAddress(token string, chainID uint64) (string, bool) {
	byChain, ok := r.addresses[strings.ToUpper(strings.TrimSpace(token))]
	if !ok {
		return "", false
	}
	addr, ok := byChain[chainID]
	return addr, ok
}

// Decimals returns the token's declared decimal precision, defaulting to 18.
func (r *TokenRegistry) Decimals(token string) int {
	if d, ok := r.decimals[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return d
	}
	return 18
}

// Chains lists the known chain names and their IDs.
func (r *TokenRegistry) Chains() map[string]uint64 {
	out := make(map[string]uint64, len(r.chainIDs))
	for name, id := range r.chainIDs {
		out[name] = id
	}
	return out
}

// IsNative reports whether the token resolves to the native asset on the chain.
func (r *TokenRegistry) IsNative(token string, chainID uint64) bool {
	addr, ok := r.ResolveTokenAddress(token, chainID)
	return ok && strings.EqualFold(addr, ZeroAddress)
}
