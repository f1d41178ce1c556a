//go:build !race

package buffers

const raceDetectorEnabled = false
