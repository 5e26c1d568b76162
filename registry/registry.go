// Package registry implements the on-chain stealth key registry
// client: reads of published keys, registration calldata, and the
// announcement log reader used for scanning.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/internal/hexutil"
	"github.com/shakesco/shakesco-private/secp256k1"
)

// registryABI mirrors the StealthKeyRegistry contract surface. Keys are
// stored compressed: a sign prefix (2 or 3) and the 32-byte
// x-coordinate, each widened to uint256.
const registryABI = `[
	{
		"inputs": [{"name": "registrant", "type": "address"}],
		"name": "stealthKeys",
		"outputs": [
			{"name": "spendingPubKeyPrefix", "type": "uint256"},
			{"name": "spendingPubKey", "type": "uint256"},
			{"name": "viewingPubKeyPrefix", "type": "uint256"},
			{"name": "viewingPubKey", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "spendingPubKeyPrefix", "type": "uint256"},
			{"name": "spendingPubKey", "type": "uint256"},
			{"name": "viewingPubKeyPrefix", "type": "uint256"},
			{"name": "viewingPubKey", "type": "uint256"}
		],
		"name": "setStealthKeys",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ContractCaller is the read-side subset of ethclient.Client the
// registry needs. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TransactionSender submits registration calldata to the registry
// contract. Implementations own signing and gas handling; smart-account
// callers typically route the calldata through their account instead.
type TransactionSender interface {
	SendTransaction(ctx context.Context, to common.Address, calldata []byte) error
}

// Registry reads and writes stealth keys on the registry contract. It
// implements stealth.KeyRegistry; identities are 20-byte hex addresses.
type Registry struct {
	caller   ContractCaller
	sender   TransactionSender
	contract common.Address
	logger   *slog.Logger

	registryABI abi.ABI
}

// Option configures a Registry.
type Option func(*Registry)

// WithSender enables SetStealthKeys by providing a transaction sender.
func WithSender(sender TransactionSender) Option {
	return func(r *Registry) { r.sender = sender }
}

// WithLogger sets the logger. The default discards nothing but logs at
// the handler's configured level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates a registry client against the contract at the given
// address.
func New(caller ContractCaller, contract common.Address, opts ...Option) (*Registry, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry ABI: %w", err)
	}

	r := &Registry{
		caller:      caller,
		contract:    contract,
		logger:      slog.Default(),
		registryABI: parsed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dial connects to an Ethereum RPC endpoint and returns a registry
// client backed by it.
func Dial(ctx context.Context, rpcURL string, contract common.Address, opts ...Option) (*Registry, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to rpc: %w", err)
	}
	return New(client, contract, opts...)
}

// GetStealthKeys reads the published keys for an address and returns
// them in uncompressed form. Zero storage reads back as a zero-valued
// result, which stealth.Client treats as unregistered.
func (r *Registry) GetStealthKeys(ctx context.Context, identity string) (*stealth.StealthKeys, error) {
	if !common.IsHexAddress(identity) {
		return nil, fmt.Errorf("identity %q is not a hex address", identity)
	}
	registrant := common.HexToAddress(identity)

	input, err := r.registryABI.Pack("stealthKeys", registrant)
	if err != nil {
		return nil, fmt.Errorf("pack stealthKeys: %w", err)
	}

	output, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &r.contract,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stealth.ErrRegistryUnavailable, err)
	}

	values, err := r.registryABI.Unpack("stealthKeys", output)
	if err != nil {
		return nil, fmt.Errorf("unpack stealthKeys: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unpack stealthKeys: want 4 values, got %d", len(values))
	}

	spendingPrefix := values[0].(*big.Int)
	spendingX := values[1].(*big.Int)
	viewingPrefix := values[2].(*big.Int)
	viewingX := values[3].(*big.Int)

	if spendingX.Sign() == 0 || viewingX.Sign() == 0 {
		r.logger.Debug("no stealth keys registered", slog.String("registrant", registrant.Hex()))
		return &stealth.StealthKeys{}, nil
	}

	spending, err := decompressKey(spendingPrefix, spendingX)
	if err != nil {
		return nil, fmt.Errorf("registered spending key for %s: %w", registrant.Hex(), err)
	}
	viewing, err := decompressKey(viewingPrefix, viewingX)
	if err != nil {
		return nil, fmt.Errorf("registered viewing key for %s: %w", registrant.Hex(), err)
	}

	return &stealth.StealthKeys{
		SpendingPublicKey: spending.PublicKeyHex(),
		ViewingPublicKey:  viewing.PublicKeyHex(),
	}, nil
}

// SetStealthKeys publishes compressed keys for the sender's own
// address. Requires a TransactionSender; use Calldata with a
// smart-account flow otherwise.
func (r *Registry) SetStealthKeys(ctx context.Context, keys *stealth.RegistrationKeys) error {
	if r.sender == nil {
		return fmt.Errorf("registry has no transaction sender configured")
	}
	calldata, err := r.Calldata(keys)
	if err != nil {
		return err
	}

	r.logger.Info("publishing stealth keys", slog.String("contract", r.contract.Hex()))
	if err := r.sender.SendTransaction(ctx, r.contract, calldata); err != nil {
		return fmt.Errorf("%w: %v", stealth.ErrRegistryUnavailable, err)
	}
	return nil
}

// Calldata encodes a setStealthKeys call for the given keys. The result
// can be submitted directly or wrapped in a smart-account execution.
func (r *Registry) Calldata(keys *stealth.RegistrationKeys) ([]byte, error) {
	if keys == nil {
		return nil, fmt.Errorf("nil registration keys")
	}
	spendingX, err := hexutil.DecodeFixed(keys.SpendingPubKeyX, hexutil.ScalarLen)
	if err != nil {
		return nil, fmt.Errorf("spending key x: %w", err)
	}
	viewingX, err := hexutil.DecodeFixed(keys.ViewingPubKeyX, hexutil.ScalarLen)
	if err != nil {
		return nil, fmt.Errorf("viewing key x: %w", err)
	}

	input, err := r.registryABI.Pack("setStealthKeys",
		big.NewInt(int64(keys.SpendingPrefix)),
		new(big.Int).SetBytes(spendingX),
		big.NewInt(int64(keys.ViewingPrefix)),
		new(big.Int).SetBytes(viewingX),
	)
	if err != nil {
		return nil, fmt.Errorf("pack setStealthKeys: %w", err)
	}
	return input, nil
}

// decompressKey rebuilds an uncompressed key pair from the contract's
// widened prefix and x-coordinate words.
func decompressKey(prefix, x *big.Int) (*secp256k1.KeyPair, error) {
	if !prefix.IsUint64() || (prefix.Uint64() != 2 && prefix.Uint64() != 3) {
		return nil, fmt.Errorf("sign prefix must be 2 or 3, got %s", prefix)
	}
	xHex, err := hexutil.PadBig(x, hexutil.ScalarLen)
	if err != nil {
		return nil, err
	}
	return secp256k1.NewFromCompressed(byte(prefix.Uint64()), xHex)
}
