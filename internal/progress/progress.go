package progress

import (
	"regexp"
	"strconv"
	"time"
)

// Sample is one parsed progress observation from the engine's diagnostic
// stream.
type Sample struct {
	Elapsed time.Duration
	// Percent is only meaningful when HasPercent is true; without a known
	// total duration progress is indeterminate.
	Percent    float64
	HasPercent bool
}

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)
	elapsedPattern  = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)
)

// Monitor derives a monotonic completion percentage from the engine's
// line-oriented diagnostic output. One Monitor tracks one engine invocation;
// use Reset between invocations.
//
// The first line announcing "Duration: HH:MM:SS.ff" locks the total duration
// for the invocation; later duration-looking lines belong to secondary inputs
// and are ignored. Malformed lines are never fatal.
type Monitor struct {
	total       time.Duration
	lastPercent float64
}

// NewMonitor returns a monitor with no known total duration.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Reset clears all state for a new invocation.
func (m *Monitor) Reset() {
	m.total = 0
	m.lastPercent = 0
}

// TotalDuration returns the locked total duration, or 0 when unknown.
func (m *Monitor) TotalDuration() time.Duration {
	return m.total
}

// Percent returns the highest percentage observed so far.
func (m *Monitor) Percent() float64 {
	return m.lastPercent
}

// ObserveLine consumes one diagnostic line. It returns a Sample and true when
// the line carried an elapsed-time report.
func (m *Monitor) ObserveLine(line string) (Sample, bool) {
	if m.total == 0 {
		if match := durationPattern.FindStringSubmatch(line); match != nil {
			if d, ok := clockDuration(match); ok && d > 0 {
				m.total = d
			}
		}
	}

	match := elapsedPattern.FindStringSubmatch(line)
	if match == nil {
		return Sample{}, false
	}
	elapsed, ok := clockDuration(match)
	if !ok {
		return Sample{}, false
	}

	sample := Sample{Elapsed: elapsed}
	if m.total > 0 {
		percent := elapsed.Seconds() / m.total.Seconds() * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		// A briefly regressing parse keeps the previous maximum so observers
		// never see progress move backwards.
		if percent < m.lastPercent {
			percent = m.lastPercent
		}
		m.lastPercent = percent
		sample.Percent = percent
		sample.HasPercent = true
	}
	return sample, true
}

// clockDuration converts a HH:MM:SS[.fraction] submatch into a duration.
func clockDuration(match []string) (time.Duration, bool) {
	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[3])
	if err != nil {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if match[4] != "" {
		fraction, err := strconv.ParseFloat("0."+match[4], 64)
		if err != nil {
			return 0, false
		}
		total += time.Duration(fraction * float64(time.Second))
	}
	return total, true
}
