package model

import "strings"

// This is only for the configuration, not implementing AWS handler logic.

type AwsConfig struct {
	Profile string  `yaml:"profile,omitempty"`
	Region  string  `yaml:"region,omitempty"`
	Buckets Buckets `yaml:"buckets,omitempty"`
}

type Buckets struct {
	// Output is where the audio files and the feed are published.
	Output             string `yaml:"output,omitempty"`
	OutputStorageClass string `yaml:"outputStorageClass,omitempty"`
	// FeedKey is the key of the feed in the output bucket, defaults to
	// the base name of the local feed file.
	FeedKey string `yaml:"feedKey,omitempty"`
}

const defaultStorageClass = "STANDARD"

// GetStorageClass returns the storage class for the output bucket,
// STANDARD if none is configured.
func (b *Buckets) GetStorageClass() string {
	if strings.TrimSpace(b.OutputStorageClass) == "" {
		return defaultStorageClass
	}
	return b.OutputStorageClass
}

// Configured reports whether there is an output bucket to publish to.
func (a *AwsConfig) Configured() bool {
	return strings.TrimSpace(a.Buckets.Output) != ""
}
