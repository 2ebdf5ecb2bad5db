package evm

import (
	"context"
	"math/big"
	"strings"

	"github.com/TextToChain/settlement-lib/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// maxUint256 is the unlimited approval amount (2^256 - 1).
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EnsureAllowance checks the signer's allowance for the spender and submits
// an unlimited approval when it is below the required amount. The approval
// transaction is confirmed before returning.
//
// Parameters:
// - ctx: the context for managing the request.
// - tokenAddress: the token contract address.
// - spender: the address allowed to spend the token.
// - amount: the minimum allowance required.
//
// Returns:
// - string: the approval transaction hash, or empty when no approval was needed.
// - error: an error if the allowance check or the approval fails.
func (e *evm) EnsureAllowance(ctx context.Context, tokenAddress string, spender string, amount *big.Int) (string, error) {
	e.signerMutex.RLock()
	s := e.signer
	e.signerMutex.RUnlock()

	if s == nil {
		return "", errors.New("signer not initialized")
	}

	current, err := e.getAllowance(ctx, tokenAddress, s.Address().Hex(), spender)
	if err != nil {
		return "", err
	}

	if current.Cmp(amount) >= 0 {
		return "", nil
	}

	e.logger.WithField("chain", e.config.Name).Info("Allowance below required amount, approving spender")

	receipt, err := e.Execute(ctx, &types.Operation{
		Kind:         types.OpApprove,
		ChainID:      e.config.ChainID,
		TokenAddress: tokenAddress,
		To:           spender,
		Amount:       maxUint256,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to approve spender")
	}

	e.logger.WithField("txHash", receipt.Hash).Info("Approval confirmed")
	return receipt.Hash, nil
}

// getAllowance reads allowance(owner, spender) from the token contract.
func (e *evm) getAllowance(ctx context.Context, tokenAddress string, owner string, spender string) (*big.Int, error) {
	e.clientMutex.RLock()
	client := e.client
	e.clientMutex.RUnlock()

	if client == nil {
		return nil, errors.New("client not initialized")
	}

	tokenAbi, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token ABI")
	}

	data, err := tokenAbi.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack allowance data")
	}

	tokenAddr := common.HexToAddress(tokenAddress)
	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &tokenAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call allowance")
	}

	if len(result) == 0 {
		return nil, errors.New("empty result from allowance call")
	}

	return new(big.Int).SetBytes(result), nil
}
