// Package recognizer trains per-user face models from engine embeddings
// and matches probe images against them. Trained models are serialized as
// .yml files into the configured storage backend; at runtime they live in
// an in-memory cache that is invalidated on every mutation and rebuilt
// lazily on the next lookup.
package recognizer

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// UserModel is the trained model for a single user: the embeddings of all
// valid enrolled images plus their mean. Serialized as YAML into storage.
type UserModel struct {
	User      string      `yaml:"user"`
	ModelID   string      `yaml:"model_id"`
	Dim       int         `yaml:"dim"`
	TrainedAt time.Time   `yaml:"trained_at"`
	Mean      []float32   `yaml:"mean"`
	Samples   [][]float32 `yaml:"samples"`
}

// EncodeModel serializes a user model to its .yml representation.
func EncodeModel(m *UserModel) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding model for %s: %w", m.User, err)
	}
	return data, nil
}

// DecodeModel parses a .yml model file.
func DecodeModel(data []byte) (*UserModel, error) {
	var m UserModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if m.User == "" || len(m.Samples) == 0 {
		return nil, fmt.Errorf("decoding model: missing user or samples")
	}
	return &m, nil
}

// meanEmbedding computes the element-wise mean of the sample embeddings.
func meanEmbedding(samples [][]float32) []float32 {
	if len(samples) == 0 {
		return nil
	}
	dim := len(samples[0])
	mean := make([]float32, dim)
	count := 0
	for _, s := range samples {
		if len(s) != dim {
			continue
		}
		for i, v := range s {
			mean[i] += v
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range mean {
		mean[i] /= float32(count)
	}
	return mean
}
