// Package chain provides the on-chain token client for balance reads and
// faucet transfers on Base.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/walt-tipbot/internal/config"
	apperrors "github.com/walt-tipbot/internal/errors"
)

// erc20ABI is the minimal token interface the bot needs.
const erc20ABI = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// TokenClient reads balances and sends faucet transfers for the WALT token.
// The faucet key is optional; without it only reads are available.
type TokenClient struct {
	client       *ethclient.Client
	tokenAddress common.Address
	chainID      *big.Int
	parsedABI    abi.ABI

	faucetKey     *ecdsa.PrivateKey
	faucetAddress common.Address
}

// NewTokenClient dials the RPC endpoint and prepares the token contract
// bindings. cfgFaucet.PrivateKey may be empty.
func NewTokenClient(cfgChain *config.ChainConfig, cfgFaucet *config.FaucetConfig) (*TokenClient, error) {
	client, err := ethclient.Dial(cfgChain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", cfgChain.RPCURL, err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	tc := &TokenClient{
		client:       client,
		tokenAddress: common.HexToAddress(cfgChain.TokenAddress),
		chainID:      big.NewInt(cfgChain.ChainID),
		parsedABI:    parsedABI,
	}

	if cfgFaucet.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfgFaucet.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse faucet private key: %w", err)
		}
		tc.faucetKey = key
		tc.faucetAddress = crypto.PubkeyToAddress(key.PublicKey)
	}

	return tc, nil
}

// FaucetEnabled reports whether a signing key is configured.
func (tc *TokenClient) FaucetEnabled() bool {
	return tc.faucetKey != nil
}

// FaucetAddress returns the faucet wallet address, or the zero address when
// the faucet is disabled.
func (tc *TokenClient) FaucetAddress() common.Address {
	return tc.faucetAddress
}

// BalanceOf reads the token balance of holder in smallest units.
func (tc *TokenClient) BalanceOf(ctx context.Context, holder string) (*big.Int, error) {
	data, err := tc.parsedABI.Pack("balanceOf", common.HexToAddress(holder))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := tc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &tc.tokenAddress,
		Data: data,
	}, nil)
	if err != nil {
		return nil, apperrors.NewExternalCallError("balance read", err)
	}

	values, err := tc.parsedABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}

	return balance, nil
}

// Transfer sends amountWei of the token from the faucet wallet to the given
// address and returns the transaction hash. The transaction is submitted
// without waiting for confirmation, matching the faucet's optimistic flow.
func (tc *TokenClient) Transfer(ctx context.Context, to string, amountWei *big.Int) (string, error) {
	if tc.faucetKey == nil {
		return "", apperrors.NewFaucetDisabledError()
	}

	data, err := tc.parsedABI.Pack("transfer", common.HexToAddress(to), amountWei)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer call: %w", err)
	}

	nonce, err := tc.client.PendingNonceAt(ctx, tc.faucetAddress)
	if err != nil {
		return "", apperrors.NewExternalCallError("nonce read", err)
	}

	gasPrice, err := tc.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", apperrors.NewExternalCallError("gas price read", err)
	}

	gasLimit, err := tc.client.EstimateGas(ctx, ethereum.CallMsg{
		From: tc.faucetAddress,
		To:   &tc.tokenAddress,
		Data: data,
	})
	if err != nil {
		return "", apperrors.NewExternalCallError("gas estimate", err)
	}

	tx := ethtypes.NewTransaction(nonce, tc.tokenAddress, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(tc.chainID), tc.faucetKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transfer: %w", err)
	}

	if err := tc.client.SendTransaction(ctx, signedTx); err != nil {
		return "", apperrors.NewExternalCallError("token transfer", err)
	}

	return signedTx.Hash().Hex(), nil
}

// Close releases the RPC connection.
func (tc *TokenClient) Close() {
	tc.client.Close()
}
