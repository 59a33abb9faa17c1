package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/faceapi"
	"github.com/kozaktomas/face-locker/internal/recognizer"
	"github.com/kozaktomas/face-locker/internal/storage"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize the face in a local image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Float64("threshold", 0, "Maximum cosine distance for a match (overrides CONFIDENCE_THRESHOLD)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	threshold := cfg.Recognizer.ConfidenceThreshold
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		threshold = t
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	engine := faceapi.NewClient(cfg.FaceAPI.URL, cfg.FaceAPI.Model)
	rec := recognizer.New(store, engine, threshold, cfg.Recognizer.MaxImageSize)

	result, err := rec.Recognize(ctx, data)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	switch {
	case result.Found:
		fmt.Printf("Match: %s (distance %.4f)\n", result.User, result.Confidence)
	case result.Error != "":
		fmt.Printf("No match: %s\n", result.Error)
	case result.Reason == recognizer.ReasonLowConfidence:
		fmt.Printf("No match: %s (best distance %.4f)\n", result.Reason, result.Confidence)
	default:
		fmt.Printf("No match: %s\n", result.Reason)
	}
	return nil
}
