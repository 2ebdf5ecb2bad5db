package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTokenRegistry(t *testing.T) {
	r := DefaultTokenRegistry()

	id, ok := r.ResolveChainID("polygon")
	require.True(t, ok)
	assert.Equal(t, uint64(137), id)

	// Aliases and case-insensitivity.
	id, ok = r.ResolveChainID("ARB")
	require.True(t, ok)
	assert.Equal(t, uint64(42161), id)

	_, ok = r.ResolveChainID("nosuchchain")
	assert.False(t, ok)

	addr, ok := r.ResolveTokenAddress("usdc", 1)
	require.True(t, ok)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", addr)

	_, ok = r.ResolveTokenAddress("USDC", 11155111)
	assert.False(t, ok)

	assert.Equal(t, 6, r.Decimals("USDC"))
	assert.Equal(t, 18, r.Decimals("ETH"))
	assert.Equal(t, 18, r.Decimals("UNKNOWN"))

	assert.True(t, r.IsNative("ETH", 1))
	assert.False(t, r.IsNative("USDC", 1))
}
