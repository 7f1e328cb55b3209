package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Device.Port)
	assert.Equal(t, 115200, cfg.Device.BaudRate)
	assert.Equal(t, Preset50Hz(), cfg.Biometric)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Stream.URL)
	assert.Equal(t, "ppg.results", cfg.Stream.ResultsSubject)
	assert.Equal(t, float64(72), cfg.Mock.HeartRateBPM)

	require.NoError(t, cfg.Biometric.Validate())
}

func TestPresets(t *testing.T) {
	p50 := Preset50Hz()
	assert.Equal(t, 150, p50.HRWindowSamples())
	assert.Equal(t, 250, p50.SpO2WindowSamples())
	require.NoError(t, p50.Validate())

	p100 := Preset100Hz()
	assert.Equal(t, 500, p100.HRWindowSamples())
	assert.Equal(t, 500, p100.SpO2WindowSamples())
	require.NoError(t, p100.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
device:
  port: "/dev/ttyUSB3"
  baud_rate: 230400

biometric:
  sample_rate: 100
  hr_window_seconds: 5
  spo2_window_seconds: 5
  min_bpm: 45
  max_bpm: 180

stream:
  url: "nats://10.0.0.2:4222"
  results_subject: "clinic.ppg"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Device.Port)
	assert.Equal(t, 230400, cfg.Device.BaudRate)
	assert.Equal(t, float64(100), cfg.Biometric.SampleRate)
	assert.Equal(t, float64(45), cfg.Biometric.MinBPM)
	assert.Equal(t, float64(180), cfg.Biometric.MaxBPM)
	assert.Equal(t, "nats://10.0.0.2:4222", cfg.Stream.URL)
	assert.Equal(t, "clinic.ppg", cfg.Stream.ResultsSubject)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
device:
  port: "/dev/ttyUSB0"

biometric:
  sample_rate: 100
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device.Port)
	assert.Equal(t, float64(100), cfg.Biometric.SampleRate)
	assert.Equal(t, 115200, cfg.Device.BaudRate)               // default
	assert.Equal(t, float64(3), cfg.Biometric.HRWindowSeconds) // default
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Stream.URL)   // default
	assert.Equal(t, float64(50), cfg.Mock.SampleRateHz)        // default
}

func TestLoad_RejectsInvalidBiometrics(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
biometric:
  min_bpm: 200
  max_bpm: 40
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	_, err = Load(tmpfile.Name())
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Device.Port = "/dev/ttyUSB0"
	cfg.Biometric = Preset100Hz()
	cfg.Mock.HeartRateBPM = 80

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BiometricConfig)
		wantErr bool
	}{
		{name: "preset is valid", mutate: func(*BiometricConfig) {}},
		{name: "zero sample rate", mutate: func(b *BiometricConfig) { b.SampleRate = 0 }, wantErr: true},
		{name: "negative hr window", mutate: func(b *BiometricConfig) { b.HRWindowSeconds = -1 }, wantErr: true},
		{name: "inverted bpm bounds", mutate: func(b *BiometricConfig) { b.MinBPM, b.MaxBPM = 200, 40 }, wantErr: true},
		{name: "inverted spo2 bounds", mutate: func(b *BiometricConfig) { b.MinSpO2, b.MaxSpO2 = 100, 70 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Preset50Hz()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
