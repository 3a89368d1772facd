package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mealsquirrel",
		Short: "Caching proxy for the themealdb.com recipe API",
		Long:  "Serve themealdb.com lookups over HTTP and gRPC through a bounded TTL/LRU cache",
	}

	rootCmd.AddCommand(serveCmd(), configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
