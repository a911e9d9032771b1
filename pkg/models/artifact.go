package models

import "time"

// ModelMetadata describes one persisted scorer artifact. It is written
// beside the artifact at save time and read-only afterwards; Checksum
// binds the artifact bytes to this metadata for integrity verification.
type ModelMetadata struct {
	Name            string             `json:"model_name"`
	Version         string             `json:"version"`
	Type            string             `json:"model_type"`
	TrainedAt       time.Time          `json:"trained_at"`
	Description     string             `json:"description,omitempty"`
	Hyperparameters map[string]any     `json:"hyperparameters,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Checksum        string             `json:"checksum,omitempty"`
}
