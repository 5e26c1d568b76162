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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/internal/hexutil"
)

// announcerABI describes the event emitted alongside every stealth
// transfer.
const announcerABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "receiver", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": true, "name": "token", "type": "address"},
			{"indexed": false, "name": "pkx", "type": "bytes32"},
			{"indexed": false, "name": "ciphertext", "type": "bytes32"}
		],
		"name": "Announcement",
		"type": "event"
	}
]`

// LogFilterer is the log-query subset of ethclient.Client.
// *ethclient.Client satisfies it.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// AnnouncementReader fetches and decodes Announcement events from the
// announcer contract.
type AnnouncementReader struct {
	filterer LogFilterer
	contract common.Address
	logger   *slog.Logger

	announcerABI abi.ABI
	eventID      common.Hash
}

// NewAnnouncementReader creates a reader for the announcer contract at
// the given address.
func NewAnnouncementReader(filterer LogFilterer, contract common.Address, logger *slog.Logger) (*AnnouncementReader, error) {
	parsed, err := abi.JSON(strings.NewReader(announcerABI))
	if err != nil {
		return nil, fmt.Errorf("parse announcer ABI: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnouncementReader{
		filterer:     filterer,
		contract:     contract,
		logger:       logger,
		announcerABI: parsed,
		eventID:      crypto.Keccak256Hash([]byte("Announcement(address,uint256,address,bytes32,bytes32)")),
	}, nil
}

// EventID returns the topic hash of the Announcement event.
func (r *AnnouncementReader) EventID() common.Hash {
	return r.eventID
}

// Read fetches announcements in the block range [from, to]. A nil `to`
// means latest. Logs that fail to decode are skipped with a warning
// rather than failing the whole range.
func (r *AnnouncementReader) Read(ctx context.Context, from, to *big.Int) ([]*stealth.Announcement, error) {
	logs, err := r.filterer.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{r.contract},
		Topics:    [][]common.Hash{{r.eventID}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: filter logs: %v", stealth.ErrRegistryUnavailable, err)
	}

	anns := make([]*stealth.Announcement, 0, len(logs))
	for _, lg := range logs {
		ann, err := r.Decode(lg)
		if err != nil {
			r.logger.Warn("skipping undecodable announcement",
				slog.String("tx", lg.TxHash.Hex()),
				slog.Uint64("block", lg.BlockNumber),
				slog.String("error", err.Error()),
			)
			continue
		}
		anns = append(anns, ann)
	}

	r.logger.Debug("announcements fetched",
		slog.Int("logs", len(logs)),
		slog.Int("decoded", len(anns)),
	)
	return anns, nil
}

// Decode converts one raw log into an announcement.
func (r *AnnouncementReader) Decode(lg types.Log) (*stealth.Announcement, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != r.eventID {
		return nil, fmt.Errorf("%w: unexpected topics", stealth.ErrInvalidAnnouncement)
	}

	values, err := r.announcerABI.Unpack("Announcement", lg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stealth.ErrInvalidAnnouncement, err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("%w: want 3 data values, got %d", stealth.ErrInvalidAnnouncement, len(values))
	}

	amount := values[0].(*big.Int)
	pkx := values[1].([32]byte)
	ciphertext := values[2].([32]byte)

	receiver := common.BytesToAddress(lg.Topics[1].Bytes())
	token := common.BytesToAddress(lg.Topics[2].Bytes())

	return &stealth.Announcement{
		EphemeralPubKeyX: hexutil.Encode(pkx[:]),
		Ciphertext:       hexutil.Encode(ciphertext[:]),
		ReceiverAddress:  receiver.Hex(),
		TokenAddress:     token.Hex(),
		AmountOrID:       amount,
	}, nil
}
