// Package gpu implements the GPU search engine: driving an OpenCL 1.2
// compute device with the same preimage/hash/score semantics the CPU
// engine uses. The actual device orchestration lives in
// search_opencl.go, built only with the "opencl" build tag (it requires
// cgo and OpenCL headers/library at build time); search_stub.go supplies
// the default, cgo-free build.
package gpu

import "time"

// MaxReadbackRecords bounds the device-side result buffer. Overflow
// beyond this many reportable candidates in a single launch is counted
// and discarded, not fatal.
const MaxReadbackRecords = 256

// Engine drives one OpenCL device for the duration of a session.
type Engine struct {
	// Device is the OpenCL device index to use. 255 ("no GPU") is
	// rejected by callers before construction.
	Device uint8

	// ProgressInterval, if non-zero, logs attempts/best candidate at
	// that cadence, mirroring the CPU engine's verbose mode.
	ProgressInterval time.Duration
}
