// Package session records raw sample streams to disk and replays them
// through the batch pipeline. A session file is just a sequence of
// 18-byte combined packets, so replay needs no schema beyond the wire
// format itself.
package session

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/itohio/gopulse/pkg/biometrics"
	"github.com/itohio/gopulse/pkg/frame"
)

// Recorder appends raw samples to a session file.
type Recorder struct {
	f     *os.File
	w     *bufio.Writer
	count int
}

// NewRecorder creates (or truncates) a session file.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create session file: %w", err)
	}
	return &Recorder{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one sample.
func (r *Recorder) Write(s frame.RawSample) error {
	if _, err := r.w.Write(frame.EncodeCombined(s)); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of samples written so far.
func (r *Recorder) Count() int {
	return r.count
}

// Close flushes and closes the session file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return fmt.Errorf("failed to flush session file: %w", err)
	}
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	return nil
}

// Read loads all samples from a session file. A trailing partial
// record is dropped, matching the decoder's floor-division semantics.
func Read(path string) ([]frame.RawSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	var samples []frame.RawSample
	reader := bufio.NewReader(f)
	buf := make([]byte, frame.CombinedSize)

	for {
		if _, err := io.ReadFull(reader, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return samples, nil
			}
			return nil, fmt.Errorf("failed to read session file: %w", err)
		}
		s, ok := frame.DecodeCombined(buf)
		if !ok {
			return samples, nil
		}
		samples = append(samples, s)
	}
}

// Channels splits samples into the six per-channel arrays the batch
// entry point takes.
func Channels(samples []frame.RawSample) (ir, red, green []int32, ax, ay, az []int16) {
	ir = make([]int32, len(samples))
	red = make([]int32, len(samples))
	green = make([]int32, len(samples))
	ax = make([]int16, len(samples))
	ay = make([]int16, len(samples))
	az = make([]int16, len(samples))
	for i, s := range samples {
		ir[i] = s.IR
		red[i] = s.Red
		green[i] = s.Green
		ax[i] = s.AccelX
		ay[i] = s.AccelY
		az[i] = s.AccelZ
	}
	return
}

// Replay runs a recorded sample set through the processor's batch path
// and returns the final result.
func Replay(p *biometrics.Processor, samples []frame.RawSample) biometrics.Result {
	ir, red, green, ax, ay, az := Channels(samples)
	return p.ProcessBatch(ir, red, green, ax, ay, az)
}
