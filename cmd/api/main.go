package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version 建置時以 -ldflags "-X main.Version=1.0.0" 設定
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "food-analyzer",
	Short:         "Food Analysis API - 食物圖片分析與營養查詢",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
