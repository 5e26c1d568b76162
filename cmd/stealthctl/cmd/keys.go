package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	stealth "github.com/shakesco/shakesco-private"
	"github.com/shakesco/shakesco-private/internal/hexutil"
	"github.com/shakesco/shakesco-private/registry"
)

// keyFile is the YAML document written by `keys generate`. It holds
// private material; `keys register` and `scan` read it back.
type keyFile struct {
	Spending keyFileEntry `yaml:"spending"`
	Viewing  keyFileEntry `yaml:"viewing"`
}

type keyFileEntry struct {
	PrivateKey string `yaml:"private_key"`
	PublicKey  string `yaml:"public_key"`
	Address    string `yaml:"address"`
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Derive, inspect, and register stealth keys",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Derive stealth keys from a wallet signature",
	Long: `Derive the spending and viewing key pairs from a 65-byte wallet
signature and write them to a key file.

Sign the fixed derivation message with the wallet that owns your
registered address, then pass the signature here. Re-signing the same
message always regenerates the same keys, so the key file is a
convenience cache, not the only copy.

Examples:
  stealthctl keys generate --signature 0x3045...1b
  cat signature.txt | stealthctl keys generate`,
	RunE: runKeysGenerate,
}

var keysRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Publish stealth public keys to the on-chain registry",
	Long: `Build the setStealthKeys calldata for the public keys in the key
file and print it, so it can be submitted from the wallet that owns
the registered address.

Examples:
  stealthctl keys register --keys-file stealth-keys.yaml
  # Then submit from your wallet:
  cast send $REGISTRY $(stealthctl keys register) --from 0xYourAddress`,
	RunE: runKeysRegister,
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public half of the key file",
	RunE:  runKeysShow,
}

func init() {
	keysGenerateCmd.Flags().String("signature", "", "65-byte r||s||v signature hex (read from stdin if omitted)")
	keysGenerateCmd.Flags().String("keys-file", "", "output file (default from config)")
	keysGenerateCmd.Flags().Bool("force", false, "overwrite an existing key file")

	keysRegisterCmd.Flags().String("keys-file", "", "key file (default from config)")
	keysShowCmd.Flags().String("keys-file", "", "key file (default from config)")

	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysRegisterCmd)
	keysCmd.AddCommand(keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}

func keysFilePath(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("keys-file"); v != "" {
		return v
	}
	return cfg.Keys.File
}

func loadKeyFile(path string) (*keyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	return &kf, nil
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	signature, _ := cmd.Flags().GetString("signature")
	if signature == "" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("no signature given: pass --signature or pipe it on stdin")
		}
		signature = strings.TrimSpace(scanner.Text())
	}

	pairs, err := stealth.GenerateKeyPairs(signature)
	if err != nil {
		return err
	}

	spendingPriv, err := pairs.Spending.PrivateKeyHex()
	if err != nil {
		return err
	}
	viewingPriv, err := pairs.Viewing.PrivateKeyHex()
	if err != nil {
		return err
	}

	kf := keyFile{
		Spending: keyFileEntry{
			PrivateKey: spendingPriv,
			PublicKey:  pairs.Spending.PublicKeyHex(),
			Address:    pairs.Spending.Address(),
		},
		Viewing: keyFileEntry{
			PrivateKey: viewingPriv,
			PublicKey:  pairs.Viewing.PublicKeyHex(),
			Address:    pairs.Viewing.Address(),
		},
	}

	path := keysFilePath(cmd)
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}

	data, err := yaml.Marshal(&kf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}

	logger.Info("stealth keys written",
		slog.String("file", path),
		slog.String("spending_address", kf.Spending.Address),
	)
	return nil
}

func runKeysRegister(cmd *cobra.Command, args []string) error {
	kf, err := loadKeyFile(keysFilePath(cmd))
	if err != nil {
		return err
	}

	reg, err := stealth.PrepareRegistrationKeys(kf.Spending.PublicKey, kf.Viewing.PublicKey)
	if err != nil {
		return err
	}

	chain := chainSettings(cmd)
	if !common.IsHexAddress(chain.Registry) {
		return fmt.Errorf("registry contract address %q is not a hex address", chain.Registry)
	}

	// No caller is needed to build calldata; the transaction is
	// submitted by the owning wallet, not by this tool.
	r, err := registry.New(nil, common.HexToAddress(chain.Registry))
	if err != nil {
		return err
	}
	calldata, err := r.Calldata(reg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(calldata))
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	kf, err := loadKeyFile(keysFilePath(cmd))
	if err != nil {
		return err
	}

	public := keyFile{
		Spending: keyFileEntry{PublicKey: kf.Spending.PublicKey, Address: kf.Spending.Address},
		Viewing:  keyFileEntry{PublicKey: kf.Viewing.PublicKey, Address: kf.Viewing.Address},
	}
	data, err := yaml.Marshal(&public)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
