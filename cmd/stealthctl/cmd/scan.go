package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan on-chain announcements for incoming stealth transfers",
	Long: `Fetch Announcement events from the announcer contract over a block
range and check each one against the viewing key in the key file.
Matches are printed as JSON, one per line, including the random number
needed to compute the stealth private key.

Examples:
  stealthctl scan --for 0xYourAddress --from-block 19000000
  stealthctl scan --for 0xYourAddress --from-block 19000000 --to-block 19100000 --workers 8`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("for", "", "your registered address")
	scanCmd.Flags().String("keys-file", "", "key file (default from config)")
	scanCmd.Flags().Int64("from-block", 0, "start of the block range (default from config)")
	scanCmd.Flags().Int64("to-block", 0, "end of the block range, 0 means latest")
	scanCmd.Flags().Int("workers", 0, "concurrent verifications (default from config)")
	scanCmd.Flags().Bool("all", false, "print non-matches too, with their reasons")
	_ = scanCmd.MarkFlagRequired("for")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	chain := chainSettings(cmd)

	recipient, _ := cmd.Flags().GetString("for")
	if !common.IsHexAddress(recipient) {
		return fmt.Errorf("address %q is not a hex address", recipient)
	}
	if !common.IsHexAddress(chain.Registry) {
		return fmt.Errorf("registry contract address %q is not a hex address", chain.Registry)
	}
	if !common.IsHexAddress(chain.Announcer) {
		return fmt.Errorf("announcer contract address %q is not a hex address", chain.Announcer)
	}

	kf, err := loadKeyFile(keysFilePath(cmd))
	if err != nil {
		return err
	}

	fromBlock, _ := cmd.Flags().GetInt64("from-block")
	if fromBlock == 0 {
		fromBlock = cfg.Scan.FromBlock
	}
	toBlock, _ := cmd.Flags().GetInt64("to-block")
	if toBlock == 0 {
		toBlock = cfg.Scan.ToBlock
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Scan.Workers
	}

	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect to rpc: %w", err)
	}
	defer client.Close()

	reader, err := registry.NewAnnouncementReader(client, common.HexToAddress(chain.Announcer), logger)
	if err != nil {
		return err
	}

	var to *big.Int
	if toBlock > 0 {
		to = big.NewInt(toBlock)
	}
	anns, err := reader.Read(ctx, big.NewInt(fromBlock), to)
	if err != nil {
		return err
	}
	logger.Info("scanning announcements",
		slog.Int("count", len(anns)),
		slog.Int("workers", workers),
	)

	reg, err := registry.New(client, common.HexToAddress(chain.Registry), registry.WithLogger(logger))
	if err != nil {
		return err
	}
	stealthClient := stealth.NewClient(reg)

	results := stealthClient.ScanAnnouncements(ctx, anns, kf.Viewing.PrivateKey, recipient,
		stealth.ScanOptions{Workers: workers})

	printAll, _ := cmd.Flags().GetBool("all")
	if !printAll {
		results = stealth.Matches(results)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	logger.Info("scan finished",
		slog.Int("announcements", len(anns)),
		slog.Int("matches", len(stealth.Matches(results))),
	)
	return nil
}
