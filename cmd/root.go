package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-locker",
	Short: "A face recognition service with pluggable storage",
	Long: `Face Locker enrolls face images per user, trains recognition models
from their embeddings and matches probe images against them. Images and
models live in a local directory, an S3 bucket or an Azure Blob container.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
