package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/registry"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Prepare a stealth transfer to a registered recipient",
	Long: `Look up the recipient's published stealth keys and derive everything
one stealth transfer needs: the one-time address to pay, and the
ephemeral key x-coordinate plus ciphertext to announce alongside it.

The output is JSON; no transaction is sent. Pay the stealth address
and publish the announcement from your wallet.

Examples:
  stealthctl send --to 0xRecipient --rpc http://localhost:8545 --registry 0xRegistry`,
	RunE: runSend,
}

// sendResult is the JSON printed by `send`.
type sendResult struct {
	StealthAddress   string `json:"stealthAddress"`
	EphemeralPubKeyX string `json:"ephemeralPubKeyX"`
	Ciphertext       string `json:"ciphertext"`
}

func init() {
	sendCmd.Flags().String("to", "", "recipient address")
	_ = sendCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	chain := chainSettings(cmd)

	recipient, _ := cmd.Flags().GetString("to")
	if !common.IsHexAddress(recipient) {
		return fmt.Errorf("recipient %q is not a hex address", recipient)
	}
	if !common.IsHexAddress(chain.Registry) {
		return fmt.Errorf("registry contract address %q is not a hex address", chain.Registry)
	}

	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect to rpc: %w", err)
	}
	defer client.Close()

	reg, err := registry.New(client, common.HexToAddress(chain.Registry), registry.WithLogger(logger))
	if err != nil {
		return err
	}

	out, err := stealth.NewClient(reg).PrepareSend(ctx, recipient)
	if err != nil {
		return err
	}

	logger.Info("stealth transfer prepared",
		slog.String("recipient", recipient),
		slog.String("stealth_address", out.StealthKeyPair.Address()),
	)

	return json.NewEncoder(cmd.OutOrStdout()).Encode(sendResult{
		StealthAddress:   out.StealthKeyPair.Address(),
		EphemeralPubKeyX: out.EphemeralPubKeyX,
		Ciphertext:       out.Payload.Ciphertext,
	})
}
