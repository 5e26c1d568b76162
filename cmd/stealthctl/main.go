// stealthctl is a command-line client for the stealth address
// protocol: derive keys from a wallet signature, publish them to the
// on-chain registry, prepare stealth transfers, and scan announcements
// for incoming funds.
package main

import (
	"fmt"
	"os"

	"github.com/shakesco/shakesco-private/cmd/stealthctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
