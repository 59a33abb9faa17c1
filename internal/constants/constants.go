// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Storage constants
const (
	// LocalBackend selects the local filesystem storage backend
	LocalBackend = "local"

	// S3Backend selects the AWS S3 storage backend
	S3Backend = "s3"

	// AzureBackend selects the Azure Blob storage backend
	AzureBackend = "azure"

	// TrainerDir is the per-user subdirectory holding trained model files
	TrainerDir = "trainer"

	// ModelExtension is the file extension for serialized user models
	ModelExtension = ".yml"
)

// Recognizer constants
const (
	// DefaultConfidenceThreshold is the default maximum cosine distance
	// for accepting a face match. Lower values = stricter matching.
	DefaultConfidenceThreshold = 0.5

	// DefaultMaxImageSize is the maximum dimension (width or height) an
	// image is scaled down to before it is sent to the face API
	DefaultMaxImageSize = 1920

	// MatchCandidates is the number of nearest neighbors fetched from the
	// index per detected face
	MatchCandidates = 10
)

// Face API constants
const (
	// DefaultFaceAPIURL is the default base URL of the face embedding service
	DefaultFaceAPIURL = "http://localhost:8000"
)

// HTTP constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (32MB)
	MaxUploadSize = 32 << 20
)
