package cbow

import (
	"fmt"
	"time"
)

// ConfigError reports an invalid training parameter or an unusable training
// set.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "cbow: " + e.Reason }

// Config controls a training run.
type Config struct {
	// Dim is the embedding dimensionality, the width of the hidden layer.
	Dim int

	// Epochs is the number of full-batch passes over the training set.
	Epochs int

	// LearningRate is the Adam step size.
	LearningRate float64

	// Beta1, Beta2 and Epsilon are the Adam moment decays and divide guard.
	// Zero values fall back to 0.9, 0.999 and 1e-8.
	Beta1   float64
	Beta2   float64
	Epsilon float64

	// Seed seeds weight initialization. Zero means a time-based seed; set it
	// for reproducible runs.
	Seed int64

	// Progress, when set, is invoked after every epoch with the epoch's mean
	// cross-entropy loss.
	Progress func(epoch int, loss float64)
}

// Validate checks the parameters that have no usable default.
func (c Config) Validate() error {
	if c.Dim <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("embedding dimension must be positive, got %d", c.Dim)}
	}
	if c.Epochs <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("epochs must be positive, got %d", c.Epochs)}
	}
	if c.LearningRate <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("learning rate must be positive, got %v", c.LearningRate)}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Beta1 == 0 {
		c.Beta1 = 0.9
	}
	if c.Beta2 == 0 {
		c.Beta2 = 0.999
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-8
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}
