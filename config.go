package lodtree

import (
	"encoding/json"
	"fmt"
	"time"
)

const defaultLoadTimeout = 15 * time.Second

// Config holds the tunable constants of the rendering and image pipeline.
// Durations are in seconds, matching the tween API.
type Config struct {
	// Buckets is the ascending table of decode sizes in physical pixels.
	Buckets []Bucket `json:"buckets"`
	// SafetyMargin multiplies the required pixel size before bucket lookup.
	SafetyMargin float64 `json:"safetyMargin"`

	// UpgradeMargin is the fraction by which the target must exceed the
	// current bucket before the hysteresis selector moves up.
	UpgradeMargin float64 `json:"upgradeMargin"`
	// UpgradeSamples is the number of consecutive qualifying evaluations
	// required to move to a larger bucket.
	UpgradeSamples int `json:"upgradeSamples"`
	// DowngradeSamples is the number of consecutive evaluations below the
	// current bucket required to move to a smaller one.
	DowngradeSamples int `json:"downgradeSamples"`

	// ExtremeZoom is the zoom scale at or above which upgrades are animated.
	ExtremeZoom float64 `json:"extremeZoom"`
	// MorphDuration is the crossfade length.
	MorphDuration float32 `json:"morphDuration"`
	// MorphGrace is how long the previous image is retained after a morph.
	MorphGrace float32 `json:"morphGrace"`
	// MorphStartScale is the initial scale of the incoming image.
	MorphStartScale float64 `json:"morphStartScale"`

	// BatchSize bounds how many loads are started, and how many results are
	// delivered, per tick.
	BatchSize int `json:"batchSize"`
	// MaxInFlight bounds concurrent fetch+decode jobs.
	MaxInFlight int `json:"maxInFlight"`
	// MaxPending bounds queued jobs that have not started yet.
	MaxPending int `json:"maxPending"`
	// LoadTimeout bounds a single fetch+decode job. A job that runs out of
	// time fails like any other load and frees its slot.
	LoadTimeout float64 `json:"loadTimeout"`
	// CacheBudgetBytes is the decoded-bitmap byte ceiling of the cache.
	CacheBudgetBytes int64 `json:"cacheBudgetBytes"`

	// PlaceholderSize is the edge length of decoded blurhash bitmaps.
	PlaceholderSize int `json:"placeholderSize"`
	// PlaceholderOpacity is the draw opacity of blurhash previews.
	PlaceholderOpacity float64 `json:"placeholderOpacity"`
	// PlaceholderPunch is the blurhash contrast factor.
	PlaceholderPunch int `json:"placeholderPunch"`

	// DevicePixelRatio converts logical to physical pixels.
	DevicePixelRatio float64 `json:"devicePixelRatio"`
	// FullDetailZoom is the zoom at which ViewportClassifier assigns tier 1.
	FullDetailZoom float64 `json:"fullDetailZoom"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Buckets:            append([]Bucket(nil), DefaultBuckets...),
		SafetyMargin:       DefaultSafetyMargin,
		UpgradeMargin:      0.10,
		UpgradeSamples:     2,
		DowngradeSamples:   12,
		ExtremeZoom:        3.0,
		MorphDuration:      0.25,
		MorphGrace:         0.1,
		MorphStartScale:    0.98,
		BatchSize:          12,
		MaxInFlight:        6,
		MaxPending:         1024,
		LoadTimeout:        defaultLoadTimeout.Seconds(),
		CacheBudgetBytes:   64 << 20,
		PlaceholderSize:    32,
		PlaceholderOpacity: 0.9,
		PlaceholderPunch:   1,
		DevicePixelRatio:   2,
		FullDetailZoom:     0.6,
	}
}

// LoadConfig parses JSON over DefaultConfig, so absent keys keep their
// defaults, and validates the result.
func LoadConfig(jsonData []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return Config{}, fmt.Errorf("lodtree: failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := ValidateBuckets(c.Buckets); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch {
	case c.SafetyMargin < 1:
		return fmt.Errorf("%w: safetyMargin %v < 1", ErrInvalidConfig, c.SafetyMargin)
	case c.UpgradeMargin < 0:
		return fmt.Errorf("%w: upgradeMargin %v < 0", ErrInvalidConfig, c.UpgradeMargin)
	case c.UpgradeSamples < 1:
		return fmt.Errorf("%w: upgradeSamples %d < 1", ErrInvalidConfig, c.UpgradeSamples)
	case c.DowngradeSamples < 1:
		return fmt.Errorf("%w: downgradeSamples %d < 1", ErrInvalidConfig, c.DowngradeSamples)
	case c.ExtremeZoom <= 0:
		return fmt.Errorf("%w: extremeZoom %v <= 0", ErrInvalidConfig, c.ExtremeZoom)
	case c.MorphDuration <= 0:
		return fmt.Errorf("%w: morphDuration %v <= 0", ErrInvalidConfig, c.MorphDuration)
	case c.MorphGrace < 0:
		return fmt.Errorf("%w: morphGrace %v < 0", ErrInvalidConfig, c.MorphGrace)
	case c.MorphStartScale <= 0 || c.MorphStartScale > 1:
		return fmt.Errorf("%w: morphStartScale %v outside (0, 1]", ErrInvalidConfig, c.MorphStartScale)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batchSize %d < 1", ErrInvalidConfig, c.BatchSize)
	case c.MaxInFlight < 1:
		return fmt.Errorf("%w: maxInFlight %d < 1", ErrInvalidConfig, c.MaxInFlight)
	case c.MaxPending < 1:
		return fmt.Errorf("%w: maxPending %d < 1", ErrInvalidConfig, c.MaxPending)
	case c.LoadTimeout <= 0:
		return fmt.Errorf("%w: loadTimeout %v <= 0", ErrInvalidConfig, c.LoadTimeout)
	case c.CacheBudgetBytes <= 0:
		return fmt.Errorf("%w: cacheBudgetBytes %d <= 0", ErrInvalidConfig, c.CacheBudgetBytes)
	case c.PlaceholderSize < 1:
		return fmt.Errorf("%w: placeholderSize %d < 1", ErrInvalidConfig, c.PlaceholderSize)
	case c.PlaceholderOpacity < 0 || c.PlaceholderOpacity > 1:
		return fmt.Errorf("%w: placeholderOpacity %v outside [0, 1]", ErrInvalidConfig, c.PlaceholderOpacity)
	case c.PlaceholderPunch < 1:
		return fmt.Errorf("%w: placeholderPunch %d < 1", ErrInvalidConfig, c.PlaceholderPunch)
	case c.DevicePixelRatio <= 0:
		return fmt.Errorf("%w: devicePixelRatio %v <= 0", ErrInvalidConfig, c.DevicePixelRatio)
	}
	return nil
}
