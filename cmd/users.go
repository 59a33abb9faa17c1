package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/storage"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List enrolled users and their image counts",
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No enrolled users found")
		return nil
	}

	for _, user := range users {
		images, err := store.ListUserImages(ctx, user)
		if err != nil {
			return fmt.Errorf("listing images for %s: %w", user, err)
		}
		fmt.Printf("  %s (%d images)\n", user, len(images))
	}
	return nil
}
