package registry

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/internal/hexutil"
	"github.com/shakesco/shakesco-private/secp256k1"
)

var (
	contractAddr = common.HexToAddress("0x31fe56609C65Cd0C510E7125f051D440424D38f3")
	aliceAddr    = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

// fakeCaller serves contract reads from an in-memory key store keyed by
// registrant address.
type fakeCaller struct {
	t    *testing.T
	abi  abi.ABI
	keys map[common.Address][4]*big.Int
	err  error
}

func newFakeCaller(t *testing.T) *fakeCaller {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	require.NoError(t, err)
	return &fakeCaller{t: t, abi: parsed, keys: make(map[common.Address][4]*big.Int)}
}

func (f *fakeCaller) store(registrant common.Address, keys *stealth.RegistrationKeys) {
	spendingX, err := hexutil.DecodeFixed(keys.SpendingPubKeyX, hexutil.ScalarLen)
	require.NoError(f.t, err)
	viewingX, err := hexutil.DecodeFixed(keys.ViewingPubKeyX, hexutil.ScalarLen)
	require.NoError(f.t, err)
	f.keys[registrant] = [4]*big.Int{
		big.NewInt(int64(keys.SpendingPrefix)),
		new(big.Int).SetBytes(spendingX),
		big.NewInt(int64(keys.ViewingPrefix)),
		new(big.Int).SetBytes(viewingX),
	}
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	require.Equal(f.t, contractAddr, *call.To)

	method := f.abi.Methods["stealthKeys"]
	require.Equal(f.t, method.ID, call.Data[:4])

	args, err := method.Inputs.Unpack(call.Data[4:])
	require.NoError(f.t, err)
	registrant := args[0].(common.Address)

	stored, ok := f.keys[registrant]
	if !ok {
		stored = [4]*big.Int{big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	}
	out, err := method.Outputs.Pack(stored[0], stored[1], stored[2], stored[3])
	require.NoError(f.t, err)
	return out, nil
}

type fakeSender struct {
	to       common.Address
	calldata []byte
	err      error
}

func (f *fakeSender) SendTransaction(_ context.Context, to common.Address, calldata []byte) error {
	if f.err != nil {
		return f.err
	}
	f.to = to
	f.calldata = calldata
	return nil
}

func registeredPairs(t *testing.T) (*stealth.KeyPairs, *stealth.RegistrationKeys) {
	t.Helper()
	pairs, err := stealth.GenerateKeyPairs("0x" + strings.Repeat("42", 64) + "1b")
	require.NoError(t, err)
	reg, err := stealth.PrepareRegistrationKeys(pairs.Spending.PublicKeyHex(), pairs.Viewing.PublicKeyHex())
	require.NoError(t, err)
	return pairs, reg
}

func TestRegistryGetStealthKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips registered keys to uncompressed form", func(t *testing.T) {
		pairs, reg := registeredPairs(t)
		caller := newFakeCaller(t)
		caller.store(common.HexToAddress(aliceAddr), reg)

		registry, err := New(caller, contractAddr)
		require.NoError(t, err)

		keys, err := registry.GetStealthKeys(ctx, aliceAddr)
		require.NoError(t, err)
		assert.True(t, keys.Registered())
		assert.Equal(t, pairs.Spending.PublicKeyHex(), keys.SpendingPublicKey)
		assert.Equal(t, pairs.Viewing.PublicKeyHex(), keys.ViewingPublicKey)
	})

	t.Run("unregistered address reads back zero", func(t *testing.T) {
		registry, err := New(newFakeCaller(t), contractAddr)
		require.NoError(t, err)

		keys, err := registry.GetStealthKeys(ctx, "0x000000000000000000000000000000000000dEaD")
		require.NoError(t, err)
		assert.False(t, keys.Registered())
	})

	t.Run("rejects non-address identities", func(t *testing.T) {
		registry, err := New(newFakeCaller(t), contractAddr)
		require.NoError(t, err)

		_, err = registry.GetStealthKeys(ctx, "alice.eth")
		assert.Error(t, err)
	})

	t.Run("rpc failure maps to registry unavailable", func(t *testing.T) {
		caller := newFakeCaller(t)
		caller.err = context.DeadlineExceeded
		registry, err := New(caller, contractAddr)
		require.NoError(t, err)

		_, err = registry.GetStealthKeys(ctx, aliceAddr)
		assert.ErrorIs(t, err, stealth.ErrRegistryUnavailable)
	})

	t.Run("corrupt stored prefix is rejected", func(t *testing.T) {
		_, reg := registeredPairs(t)
		caller := newFakeCaller(t)
		caller.store(common.HexToAddress(aliceAddr), reg)
		stored := caller.keys[common.HexToAddress(aliceAddr)]
		stored[0] = big.NewInt(7)
		caller.keys[common.HexToAddress(aliceAddr)] = stored

		registry, err := New(caller, contractAddr)
		require.NoError(t, err)

		_, err = registry.GetStealthKeys(ctx, aliceAddr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sign prefix")
	})
}

func TestRegistrySetStealthKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("submits packed calldata to the contract", func(t *testing.T) {
		_, reg := registeredPairs(t)
		sender := &fakeSender{}
		registry, err := New(newFakeCaller(t), contractAddr, WithSender(sender))
		require.NoError(t, err)

		require.NoError(t, registry.SetStealthKeys(ctx, reg))
		assert.Equal(t, contractAddr, sender.to)

		method := registry.registryABI.Methods["setStealthKeys"]
		require.Equal(t, method.ID, sender.calldata[:4])
		args, err := method.Inputs.Unpack(sender.calldata[4:])
		require.NoError(t, err)
		assert.Equal(t, int64(reg.SpendingPrefix), args[0].(*big.Int).Int64())
		assert.Equal(t, int64(reg.ViewingPrefix), args[2].(*big.Int).Int64())
	})

	t.Run("fails without a sender", func(t *testing.T) {
		_, reg := registeredPairs(t)
		registry, err := New(newFakeCaller(t), contractAddr)
		require.NoError(t, err)

		err = registry.SetStealthKeys(ctx, reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no transaction sender")
	})

	t.Run("send failure maps to registry unavailable", func(t *testing.T) {
		_, reg := registeredPairs(t)
		sender := &fakeSender{err: context.DeadlineExceeded}
		registry, err := New(newFakeCaller(t), contractAddr, WithSender(sender))
		require.NoError(t, err)

		err = registry.SetStealthKeys(ctx, reg)
		assert.ErrorIs(t, err, stealth.ErrRegistryUnavailable)
	})

	t.Run("calldata rejects nil keys", func(t *testing.T) {
		registry, err := New(newFakeCaller(t), contractAddr)
		require.NoError(t, err)
		_, err = registry.Calldata(nil)
		assert.Error(t, err)
	})
}

// Full flow through the contract-backed registry: register, send,
// verify.
func TestRegistryEndToEnd(t *testing.T) {
	ctx := context.Background()

	alice, reg := registeredPairs(t)
	caller := newFakeCaller(t)
	caller.store(common.HexToAddress(aliceAddr), reg)

	registry, err := New(caller, contractAddr)
	require.NoError(t, err)
	client := stealth.NewClient(registry)

	out, err := client.PrepareSend(ctx, aliceAddr)
	require.NoError(t, err)

	viewingPriv, err := alice.Viewing.PrivateKeyHex()
	require.NoError(t, err)

	result := client.VerifyAnnouncement(ctx, &stealth.Announcement{
		EphemeralPubKeyX: out.EphemeralPubKeyX,
		Ciphertext:       out.Payload.Ciphertext,
		ReceiverAddress:  out.StealthKeyPair.Address(),
	}, viewingPriv, aliceAddr)
	require.True(t, result.Match, "reason: %s", result.Reason)
	assert.Equal(t, out.StealthKeyPair.Address(), result.StealthAddress)

	rn, err := secp256k1.RandomNumberFromHex(result.RandomNumber)
	require.NoError(t, err)
	spendingPriv, err := alice.Spending.PrivateKeyHex()
	require.NoError(t, err)
	stealthKey, err := stealth.ComputeStealthKey(spendingPriv, rn)
	require.NoError(t, err)
	assert.Equal(t, out.StealthKeyPair.Address(), stealthKey.Address())
}
