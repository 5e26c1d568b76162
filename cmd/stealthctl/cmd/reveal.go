package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/secp256k1"
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Compute the private key for a matched stealth address",
	Long: `Combine the spending private key from the key file with the random
number recovered by a scan match, yielding the private key that
controls the stealth address.

The result is printed once and never stored. Import it into a wallet
to move the funds.

Examples:
  stealthctl reveal --random-number 0x5f8e...`,
	RunE: runReveal,
}

type revealResult struct {
	StealthAddress string `json:"stealthAddress"`
	PrivateKey     string `json:"privateKey"`
}

func init() {
	revealCmd.Flags().String("random-number", "", "random number from the matching scan result")
	revealCmd.Flags().String("keys-file", "", "key file (default from config)")
	_ = revealCmd.MarkFlagRequired("random-number")
	rootCmd.AddCommand(revealCmd)
}

func runReveal(cmd *cobra.Command, args []string) error {
	kf, err := loadKeyFile(keysFilePath(cmd))
	if err != nil {
		return err
	}

	rnHex, _ := cmd.Flags().GetString("random-number")
	rn, err := secp256k1.RandomNumberFromHex(rnHex)
	if err != nil {
		return err
	}

	stealthKey, err := stealth.ComputeStealthKey(kf.Spending.PrivateKey, rn)
	if err != nil {
		return err
	}
	priv, err := stealthKey.PrivateKeyHex()
	if err != nil {
		return err
	}

	return json.NewEncoder(cmd.OutOrStdout()).Encode(revealResult{
		StealthAddress: stealthKey.Address(),
		PrivateKey:     priv,
	})
}
