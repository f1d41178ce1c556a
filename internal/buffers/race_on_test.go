//go:build race

package buffers

// raceDetectorEnabled is true when the test binary was built with -race, so
// the SLO tests (which the race detector's instrumentation slows well past
// any reasonable budget) can skip themselves instead of flaking.
const raceDetectorEnabled = true
