package stealth

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFixture(t *testing.T) (*Client, []*Announcement, string, int) {
	t.Helper()
	ctx := context.Background()

	alice, err := GenerateKeyPairs(sigFixture)
	require.NoError(t, err)
	registry := &testRegistry{}
	registry.register("alice", alice)
	client := NewClient(registry)

	// One real announcement buried among noise addressed to others or
	// outright malformed.
	out, err := client.PrepareSend(ctx, "alice")
	require.NoError(t, err)
	mine := &Announcement{
		EphemeralPubKeyX: out.EphemeralPubKeyX,
		Ciphertext:       out.Payload.Ciphertext,
		ReceiverAddress:  out.StealthKeyPair.Address(),
	}

	bob, err := GenerateKeyPairs("0x" + strings.Repeat("37", 64) + "1b")
	require.NoError(t, err)
	registry.register("bob", bob)

	anns := make([]*Announcement, 0, 10)
	for i := 0; i < 9; i++ {
		if i == 6 {
			anns = append(anns, mine)
			continue
		}
		other, err := client.PrepareSend(ctx, "bob")
		require.NoError(t, err)
		anns = append(anns, &Announcement{
			EphemeralPubKeyX: other.EphemeralPubKeyX,
			Ciphertext:       other.Payload.Ciphertext,
			ReceiverAddress:  other.StealthKeyPair.Address(),
		})
	}
	anns = append(anns, &Announcement{EphemeralPubKeyX: "0xjunk", Ciphertext: "0x00"})

	viewingPriv, err := alice.Viewing.PrivateKeyHex()
	require.NoError(t, err)
	return client, anns, viewingPriv, 6
}

func TestScanAnnouncements(t *testing.T) {
	client, anns, viewingPriv, mineIdx := scanFixture(t)
	ctx := context.Background()

	t.Run("finds the one matching announcement in order", func(t *testing.T) {
		results := client.ScanAnnouncements(ctx, anns, viewingPriv, "alice", ScanOptions{})
		require.Len(t, results, len(anns))
		for i, r := range results {
			if i == mineIdx {
				assert.True(t, r.Match, "reason: %s", r.Reason)
				assert.Equal(t, anns[i].ReceiverAddress, r.StealthAddress)
			} else {
				assert.False(t, r.Match, "announcement %d should not match", i)
			}
		}
	})

	t.Run("single worker agrees with the default pool", func(t *testing.T) {
		serial := client.ScanAnnouncements(ctx, anns, viewingPriv, "alice", ScanOptions{Workers: 1})
		parallel := client.ScanAnnouncements(ctx, anns, viewingPriv, "alice", ScanOptions{Workers: 8})
		require.Len(t, serial, len(parallel))
		for i := range serial {
			assert.Equal(t, serial[i].Match, parallel[i].Match, "index %d", i)
			assert.Equal(t, serial[i].StealthAddress, parallel[i].StealthAddress, "index %d", i)
		}
	})

	t.Run("more workers than announcements", func(t *testing.T) {
		results := client.ScanAnnouncements(ctx, anns[:2], viewingPriv, "alice", ScanOptions{Workers: 64})
		assert.Len(t, results, 2)
	})

	t.Run("empty batch", func(t *testing.T) {
		results := client.ScanAnnouncements(ctx, nil, viewingPriv, "alice", ScanOptions{})
		assert.Empty(t, results)
	})

	t.Run("canceled context reports unchecked announcements", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		results := client.ScanAnnouncements(canceled, anns, viewingPriv, "alice", ScanOptions{Workers: 2})
		require.Len(t, results, len(anns))

		skipped := 0
		for _, r := range results {
			if strings.HasPrefix(r.Reason, "scan canceled") {
				skipped++
				assert.False(t, r.Match)
			}
		}
		assert.NotZero(t, skipped)
	})
}

func TestMatches(t *testing.T) {
	results := []ScanResult{
		{Match: false, Reason: "not for this user"},
		{Match: true, StealthAddress: "0xabc"},
		{Match: false, Reason: "decrypt failed"},
		{Match: true, StealthAddress: "0xdef"},
	}
	matches := Matches(results)
	require.Len(t, matches, 2)
	assert.Equal(t, "0xabc", matches[0].StealthAddress)
	assert.Equal(t, "0xdef", matches[1].StealthAddress)

	assert.Empty(t, Matches(nil))
}

func BenchmarkScanAnnouncements(b *testing.B) {
	ctx := context.Background()
	alice, err := GenerateKeyPairs(sigFixture)
	if err != nil {
		b.Fatal(err)
	}
	registry := &testRegistry{}
	registry.register("alice", alice)
	client := NewClient(registry)

	anns := make([]*Announcement, 32)
	for i := range anns {
		out, err := client.PrepareSend(ctx, "alice")
		if err != nil {
			b.Fatal(err)
		}
		anns[i] = &Announcement{
			EphemeralPubKeyX: out.EphemeralPubKeyX,
			Ciphertext:       out.Payload.Ciphertext,
			ReceiverAddress:  fmt.Sprintf("0x%040d", i),
		}
	}
	viewingPriv, err := alice.Viewing.PrivateKeyHex()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.ScanAnnouncements(ctx, anns, viewingPriv, "alice", ScanOptions{})
	}
}
