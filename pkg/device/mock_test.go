package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopulse/pkg/biometrics"
	"github.com/itohio/gopulse/pkg/config"
)

func TestMock_ConnectClose(t *testing.T) {
	m := NewMock(nil)

	assert.False(t, m.IsConnected())

	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect(), "double connect must fail")

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
	assert.NoError(t, m.Close(), "double close is a no-op")
}

func TestMock_StreamsSamples(t *testing.T) {
	cfg := config.Default().Mock
	cfg.SampleRateHz = 200 // keep the test fast

	m := NewMock(&cfg)
	require.NoError(t, m.Connect())
	defer m.Close()

	for i := 0; i < 5; i++ {
		select {
		case s := <-m.Samples():
			assert.Positive(t, s.IR)
			assert.Positive(t, s.Red)
			assert.Positive(t, s.Green)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a sample")
		}
	}
}

func TestMock_CloseWhileStreaming(t *testing.T) {
	cfg := config.Default().Mock
	cfg.SampleRateHz = 5000 // generate as fast as the ticker allows

	// Tear the device down repeatedly while the generator is mid-send.
	for i := 0; i < 200; i++ {
		m := NewMock(&cfg)
		require.NoError(t, m.Connect())
		time.Sleep(time.Millisecond)
		require.NoError(t, m.Close())

		// The generator owns the channel: once Close returns the
		// channel must already be closed, so draining terminates.
		for range m.Samples() {
		}

		assert.Error(t, m.Connect(), "reconnect after close must fail")
	}
}

func TestMock_NextIsDeterministic(t *testing.T) {
	cfg := config.Default().Mock

	a := NewMock(&cfg)
	b := NewMock(&cfg)

	ts := time.Time{}
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next(ts), b.Next(ts), "sample %d", i)
	}
}

func TestMock_WaveformBounds(t *testing.T) {
	cfg := config.Default().Mock
	m := NewMock(&cfg)

	ts := time.Time{}
	for i := 0; i < 200; i++ {
		s := m.Next(ts)

		assert.InDelta(t, mockIRBase, s.IR, mockIRAmplitude*1.5+200)
		assert.InDelta(t, mockGreenBase, s.Green, mockGreenAmplitude*1.5+200)

		// A still wrist reads close to 1 g on Z.
		assert.InDelta(t, mockAccelLSBPerG, s.AccelZ, 300)
	}
}

// The generated waveform should come back out of the pipeline as the
// vitals it was synthesized with.
func TestMock_PipelineRecoversVitals(t *testing.T) {
	mockCfg := config.Default().Mock
	m := NewMock(&mockCfg)

	p := biometrics.NewProcessor(config.Preset50Hz())

	ts := time.Time{}
	var res biometrics.Result
	for i := 0; i < 400; i++ {
		res = p.Process(m.Next(ts))
	}

	require.False(t, res.Partial)
	assert.Equal(t, biometrics.ActivityRelaxed, res.Activity)

	require.True(t, res.HeartRate.Available())
	assert.InDelta(t, mockCfg.HeartRateBPM, res.HeartRate.BPM, 3)

	require.True(t, res.SpO2.Valid)
	assert.Greater(t, res.SpO2.Percent, 90.0)
	assert.LessOrEqual(t, res.SpO2.Percent, 100.0)

	assert.True(t, res.Worn)
}
