// Package config holds the biometric pipeline configuration. A Config
// is constructed once per session and treated as read-only afterwards.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Biometric BiometricConfig `yaml:"biometric"`
	Stream    StreamConfig    `yaml:"stream"`
	Mock      MockConfig      `yaml:"mock"`
}

// DeviceConfig contains serial transport configuration.
type DeviceConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// StreamConfig contains the NATS publishing configuration.
type StreamConfig struct {
	URL            string `yaml:"url"`
	ResultsSubject string `yaml:"results_subject"`
}

// BiometricConfig contains the signal-processing parameters. All
// fields are fixed for the lifetime of a processing session; changing
// them mid-session invalidates buffered state.
type BiometricConfig struct {
	SampleRate float64 `yaml:"sample_rate"` // Hz

	HRWindowSeconds   float64 `yaml:"hr_window_seconds"`
	SpO2WindowSeconds float64 `yaml:"spo2_window_seconds"`

	MinBPM float64 `yaml:"min_bpm"`
	MaxBPM float64 `yaml:"max_bpm"`

	MinSpO2 float64 `yaml:"min_spo2"`
	MaxSpO2 float64 `yaml:"max_spo2"`

	MotionThreshold float64 `yaml:"motion_threshold"` // g above rest considered motion

	HighPassAlpha float64 `yaml:"high_pass_alpha"`
	LowPassAlpha  float64 `yaml:"low_pass_alpha"`

	MinHRQuality      float64 `yaml:"min_hr_quality"`
	MinSpO2Quality    float64 `yaml:"min_spo2_quality"`
	MinPerfusionIndex float64 `yaml:"min_perfusion_index"` // percent

	GrindingVariance   float64 `yaml:"grinding_variance"`   // ADC units squared
	DeviationThreshold float64 `yaml:"deviation_threshold"` // ADC units
}

// HRWindowSamples returns the heart-rate window length in samples.
func (b BiometricConfig) HRWindowSamples() int {
	return int(b.SampleRate * b.HRWindowSeconds)
}

// SpO2WindowSamples returns the SpO2 window length in samples.
func (b BiometricConfig) SpO2WindowSamples() int {
	return int(b.SampleRate * b.SpO2WindowSeconds)
}

// Validate checks the fields that would make the pipeline degenerate.
func (b BiometricConfig) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %g", b.SampleRate)
	}
	if b.HRWindowSeconds <= 0 || b.SpO2WindowSeconds <= 0 {
		return fmt.Errorf("window lengths must be positive")
	}
	if b.MinBPM <= 0 || b.MaxBPM <= b.MinBPM {
		return fmt.Errorf("bpm bounds invalid: [%g, %g]", b.MinBPM, b.MaxBPM)
	}
	if b.MinSpO2 <= 0 || b.MaxSpO2 <= b.MinSpO2 {
		return fmt.Errorf("spo2 bounds invalid: [%g, %g]", b.MinSpO2, b.MaxSpO2)
	}
	return nil
}

// MockConfig contains the simulated wearable configuration.
type MockConfig struct {
	HeartRateBPM float64 `yaml:"heart_rate_bpm"`
	SpO2Ratio    float64 `yaml:"spo2_ratio"`   // target R-ratio
	NoiseLevel   float64 `yaml:"noise_level"`  // ADC counts
	MotionLevel  float64 `yaml:"motion_level"` // g of simulated shaking
	SampleRateHz float64 `yaml:"sample_rate_hz"`
}

// Preset50Hz returns the biometric parameters tuned for the 50 Hz
// hardware profile (3 s HR window, 5 s SpO2 window).
func Preset50Hz() BiometricConfig {
	return BiometricConfig{
		SampleRate:         50,
		HRWindowSeconds:    3,
		SpO2WindowSeconds:  5,
		MinBPM:             40,
		MaxBPM:             200,
		MinSpO2:            70,
		MaxSpO2:            100,
		MotionThreshold:    0.15,
		HighPassAlpha:      0.05,
		LowPassAlpha:       0.15,
		MinHRQuality:       0.3,
		MinSpO2Quality:     0.3,
		MinPerfusionIndex:  0.05,
		GrindingVariance:   1000,
		DeviationThreshold: 5000,
	}
}

// Preset100Hz returns the biometric parameters tuned for the 100 Hz
// hardware profile (5 s windows).
func Preset100Hz() BiometricConfig {
	cfg := Preset50Hz()
	cfg.SampleRate = 100
	cfg.HRWindowSeconds = 5
	cfg.SpO2WindowSeconds = 5
	return cfg
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Biometric: Preset50Hz(),
		Stream: StreamConfig{
			URL:            "nats://127.0.0.1:4222",
			ResultsSubject: "ppg.results",
		},
		Mock: MockConfig{
			HeartRateBPM: 72,
			SpO2Ratio:    0.6,
			NoiseLevel:   20,
			MotionLevel:  0.02,
			SampleRateHz: 50,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist
// or fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Biometric.Validate(); err != nil {
		return nil, fmt.Errorf("invalid biometric configuration: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Device.Port == "" {
		c.Device.Port = def.Device.Port
	}
	if c.Device.BaudRate == 0 {
		c.Device.BaudRate = def.Device.BaudRate
	}

	if c.Biometric.SampleRate == 0 {
		c.Biometric.SampleRate = def.Biometric.SampleRate
	}
	if c.Biometric.HRWindowSeconds == 0 {
		c.Biometric.HRWindowSeconds = def.Biometric.HRWindowSeconds
	}
	if c.Biometric.SpO2WindowSeconds == 0 {
		c.Biometric.SpO2WindowSeconds = def.Biometric.SpO2WindowSeconds
	}
	if c.Biometric.MinBPM == 0 {
		c.Biometric.MinBPM = def.Biometric.MinBPM
	}
	if c.Biometric.MaxBPM == 0 {
		c.Biometric.MaxBPM = def.Biometric.MaxBPM
	}
	if c.Biometric.MinSpO2 == 0 {
		c.Biometric.MinSpO2 = def.Biometric.MinSpO2
	}
	if c.Biometric.MaxSpO2 == 0 {
		c.Biometric.MaxSpO2 = def.Biometric.MaxSpO2
	}
	if c.Biometric.MotionThreshold == 0 {
		c.Biometric.MotionThreshold = def.Biometric.MotionThreshold
	}
	if c.Biometric.HighPassAlpha == 0 {
		c.Biometric.HighPassAlpha = def.Biometric.HighPassAlpha
	}
	if c.Biometric.LowPassAlpha == 0 {
		c.Biometric.LowPassAlpha = def.Biometric.LowPassAlpha
	}
	if c.Biometric.MinHRQuality == 0 {
		c.Biometric.MinHRQuality = def.Biometric.MinHRQuality
	}
	if c.Biometric.MinSpO2Quality == 0 {
		c.Biometric.MinSpO2Quality = def.Biometric.MinSpO2Quality
	}
	if c.Biometric.MinPerfusionIndex == 0 {
		c.Biometric.MinPerfusionIndex = def.Biometric.MinPerfusionIndex
	}
	if c.Biometric.GrindingVariance == 0 {
		c.Biometric.GrindingVariance = def.Biometric.GrindingVariance
	}
	if c.Biometric.DeviationThreshold == 0 {
		c.Biometric.DeviationThreshold = def.Biometric.DeviationThreshold
	}

	if c.Stream.URL == "" {
		c.Stream.URL = def.Stream.URL
	}
	if c.Stream.ResultsSubject == "" {
		c.Stream.ResultsSubject = def.Stream.ResultsSubject
	}

	if c.Mock.SampleRateHz == 0 {
		c.Mock.SampleRateHz = def.Mock.SampleRateHz
	}
	if c.Mock.HeartRateBPM == 0 {
		c.Mock.HeartRateBPM = def.Mock.HeartRateBPM
	}
	if c.Mock.SpO2Ratio == 0 {
		c.Mock.SpO2Ratio = def.Mock.SpO2Ratio
	}
}
