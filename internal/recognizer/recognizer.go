package recognizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-locker/internal/constants"
	"github.com/kozaktomas/face-locker/internal/faceapi"
	"github.com/kozaktomas/face-locker/internal/storage"
)

// Engine detects faces and computes their embeddings. Implemented by
// faceapi.Client; mocked in tests.
type Engine interface {
	DetectFaces(ctx context.Context, imageData []byte) (*faceapi.FaceResponse, error)
}

// Result is the outcome of a recognition attempt. Confidence is the cosine
// distance of the best match: lower is better, a match is accepted when it
// is below the configured threshold.
type Result struct {
	Found      bool    `json:"found"`
	User       string  `json:"user,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Result reasons for unsuccessful recognition
const (
	ReasonNoFaceDetected = "no-face-detected"
	ReasonNoModels       = "no-models"
	ReasonNoPrediction   = "no-prediction"
	ReasonLowConfidence  = "low-confidence"
)

// Per-user training results for users that could not be trained
const (
	TrainResultNoImages      = "no-images"
	TrainResultNoValidImages = "no-valid-images"
)

// Recognizer ties together storage, the face API engine and the model
// cache. One instance is shared by the HTTP handlers and CLI commands.
type Recognizer struct {
	store        storage.Store
	engine       Engine
	cache        *Cache
	threshold    float64
	maxImageSize int

	trainMu sync.Mutex // serializes TrainAll runs
}

// New creates a recognizer with the given confidence threshold (maximum
// cosine distance for a match) and image size cap.
func New(store storage.Store, engine Engine, threshold float64, maxImageSize int) *Recognizer {
	if threshold <= 0 {
		threshold = constants.DefaultConfidenceThreshold
	}
	if maxImageSize <= 0 {
		maxImageSize = constants.DefaultMaxImageSize
	}
	return &Recognizer{
		store:        store,
		engine:       engine,
		cache:        NewCache(store),
		threshold:    threshold,
		maxImageSize: maxImageSize,
	}
}

// Invalidate drops the cached models so the next recognition reloads them.
// Must be called after any mutation of the user set.
func (r *Recognizer) Invalidate() {
	r.cache.Invalidate()
}

// embedImage runs one enrolled image through the engine and returns the
// embedding of the most confidently detected face, or nil when the image
// is unusable.
func (r *Recognizer) embedImage(ctx context.Context, ref string) []float32 {
	data, err := r.store.Download(ctx, ref)
	if err != nil {
		logrus.WithError(err).WithField("ref", ref).Warn("skipping unreadable image")
		return nil
	}

	prepared, err := prepareImage(data, r.maxImageSize)
	if err != nil {
		logrus.WithError(err).WithField("ref", ref).Warn("skipping undecodable image")
		return nil
	}

	resp, err := r.engine.DetectFaces(ctx, prepared)
	if err != nil {
		logrus.WithError(err).WithField("ref", ref).Warn("face detection failed for image")
		return nil
	}
	if len(resp.Faces) == 0 {
		return nil
	}

	best := resp.Faces[0]
	for _, face := range resp.Faces[1:] {
		if face.DetScore > best.DetScore {
			best = face
		}
	}
	if len(best.Embedding) == 0 {
		return nil
	}
	return best.Embedding
}

// TrainAll rebuilds the model for every enrolled user and stores the
// results. The returned map holds the stored model reference per user, or
// "no-images" / "no-valid-images" for users that could not be trained.
// The progress callback (optional) is invoked once per user.
func (r *Recognizer) TrainAll(ctx context.Context, progress func(user string)) (map[string]string, error) {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	results := map[string]string{}
	for _, user := range users {
		if progress != nil {
			progress(user)
		}

		images, err := r.store.ListUserImages(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("listing images for %s: %w", user, err)
		}
		if len(images) == 0 {
			results[user] = TrainResultNoImages
			continue
		}

		samples := make([][]float32, 0, len(images))
		for _, ref := range images {
			if emb := r.embedImage(ctx, ref); emb != nil {
				samples = append(samples, emb)
			}
		}
		if len(samples) == 0 {
			results[user] = TrainResultNoValidImages
			continue
		}

		modelID := uuid.NewString()
		model := &UserModel{
			User:      user,
			ModelID:   modelID,
			Dim:       len(samples[0]),
			TrainedAt: time.Now().UTC(),
			Mean:      meanEmbedding(samples),
			Samples:   samples,
		}

		data, err := EncodeModel(model)
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("%s_trainer_%s%s", user, modelID, constants.ModelExtension)
		ref, err := r.store.SaveModel(ctx, user, filename, data)
		if err != nil {
			return nil, fmt.Errorf("saving model for %s: %w", user, err)
		}
		results[user] = ref
	}

	// Drop the previous generation so the next recognize sees the new models.
	r.cache.Invalidate()
	return results, nil
}

// Recognize classifies a probe image against the cached models.
func (r *Recognizer) Recognize(ctx context.Context, imageData []byte) (*Result, error) {
	prepared, err := prepareImage(imageData, r.maxImageSize)
	if err != nil {
		return &Result{Found: false, Error: "invalid-image"}, nil
	}

	set, err := r.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading models: %w", err)
	}

	resp, err := r.engine.DetectFaces(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if len(resp.Faces) == 0 {
		return &Result{Found: false, Reason: ReasonNoFaceDetected}, nil
	}
	if set.empty() {
		return &Result{Found: false, Reason: ReasonNoModels}, nil
	}

	bestUser := ""
	bestDistance := 2.0
	matched := false
	for _, face := range resp.Faces {
		if len(face.Embedding) == 0 {
			continue
		}
		user, distance, ok := set.search(face.Embedding, constants.MatchCandidates)
		if ok && distance < bestDistance {
			bestUser = user
			bestDistance = distance
			matched = true
		}
	}

	if !matched {
		return &Result{Found: false, Reason: ReasonNoPrediction}, nil
	}
	if bestDistance >= r.threshold {
		return &Result{Found: false, Confidence: bestDistance, Reason: ReasonLowConfidence}, nil
	}
	return &Result{Found: true, User: bestUser, Confidence: bestDistance}, nil
}

// Users returns the enrolled user names.
func (r *Recognizer) Users(ctx context.Context) ([]string, error) {
	return r.store.ListUsers(ctx)
}

// Models returns references to all trained model files.
func (r *Recognizer) Models(ctx context.Context) ([]storage.ModelRef, error) {
	return r.store.ListModels(ctx)
}
