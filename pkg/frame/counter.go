package frame

// CounterTracker follows the frame counter of one packet stream and
// reports dropped frames. Counters are expected to increase by one per
// packet; a backwards jump means the device rebooted and restarts
// tracking instead of reporting a huge loss.
type CounterTracker struct {
	last   uint32
	primed bool
}

// Track records the counter of a newly received packet and returns the
// number of frames lost since the previous one (0 when contiguous).
func (t *CounterTracker) Track(counter uint32) (lost int) {
	if !t.primed {
		t.primed = true
		t.last = counter
		return 0
	}

	prev := t.last
	t.last = counter

	if counter <= prev {
		// Reboot or counter wrap, restart tracking.
		return 0
	}
	return int(counter - prev - 1)
}

// Reset forgets the tracked counter, e.g. on reconnect.
func (t *CounterTracker) Reset() {
	t.primed = false
	t.last = 0
}
