package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/faceapi"
	"github.com/kozaktomas/face-locker/internal/recognizer"
	"github.com/kozaktomas/face-locker/internal/storage"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train recognition models for all enrolled users",
	Long: `Rebuild the recognition model of every enrolled user from their
stored images and upload the models to the storage backend.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	engine := faceapi.NewClient(cfg.FaceAPI.URL, cfg.FaceAPI.Model)
	rec := recognizer.New(store, engine, cfg.Recognizer.ConfidenceThreshold, cfg.Recognizer.MaxImageSize)

	users, err := rec.Users(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No enrolled users found")
		return nil
	}

	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetDescription("Training models"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("users"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	results, err := rec.TrainAll(ctx, func(user string) {
		_ = bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	fmt.Println()

	trained := 0
	names := make([]string, 0, len(results))
	for user := range results {
		names = append(names, user)
	}
	sort.Strings(names)
	for _, user := range names {
		fmt.Printf("  %s: %s\n", user, results[user])
		if results[user] != recognizer.TrainResultNoImages && results[user] != recognizer.TrainResultNoValidImages {
			trained++
		}
	}
	fmt.Printf("Trained %d of %d users\n", trained, len(users))
	return nil
}
