// Package main provides smakictl, the operator CLI for the Smaki server.
//
// Usage:
//
//	smakictl hash-password
//	smakictl seed flavors.yaml
//	smakictl today --date 2025-06-10
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
