// Command qpot computes quasi-potential surfaces for planar stochastic
// differential equations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "qpot:", err)
		os.Exit(1)
	}
}
