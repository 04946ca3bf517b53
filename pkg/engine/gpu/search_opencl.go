//go:build opencl

package gpu

/*
#cgo CFLAGS: -I${SRCDIR}/../../../third_party/opencl-headers
#cgo linux LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#cgo windows LDFLAGS: -lOpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"crypto/rand"
	"embed"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/pkg/aggregator"
	"github.com/KONFeature/create2crunch/pkg/types"
)

//go:embed kernels/create2.cl
var kernelSource embed.FS

const (
	globalWorkSize = 1 << 16 // matches partition.WorkUnitSize
	recordSize     = 56
)

// Search drives e.Device for one RunConfig, launching batches of
// globalWorkSize work-items per iteration_nonce and reading candidate
// records back after each launch.
func (e Engine) Search(ctx context.Context, cfg types.RunConfig, log *logger.Logger) ([]types.Candidate, *types.Candidate, error) {
	dev, err := newDevice(e.Device)
	if err != nil {
		return nil, nil, fmt.Errorf("GPU engine fault: %w", err)
	}
	defer dev.release()

	if err := dev.build(); err != nil {
		return nil, nil, fmt.Errorf("GPU engine fault: %w", err)
	}

	var runSeed [4]byte
	if _, err := rand.Read(runSeed[:]); err != nil {
		return nil, nil, fmt.Errorf("GPU engine fault: %w", err)
	}

	if err := dev.createBuffers(cfg, runSeed); err != nil {
		return nil, nil, fmt.Errorf("GPU engine fault: %w", err)
	}
	defer dev.releaseBuffers()

	agg := aggregator.New(cfg, func(c types.Candidate) {
		if log != nil {
			log.Found(c)
		}
	})
	var attempts int64
	var overflowed uint32

	if log != nil && e.ProgressInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			ticker := time.NewTicker(e.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					n := atomic.LoadInt64(&attempts)
					best, ok := agg.Best()
					if ok {
						log.Progress("gpu progress", n, &best)
					} else {
						log.Progress("gpu progress", n, nil)
					}
				}
			}
		}()
	}

	var iteration uint32
	for {
		select {
		case <-ctx.Done():
			return agg.Drain(), bestPtr(agg), nil
		default:
		}

		records, count, err := dev.launch(iteration)
		if err != nil {
			return nil, nil, fmt.Errorf("GPU engine fault: %w", err)
		}
		iteration++
		atomic.AddInt64(&attempts, globalWorkSize)

		if count > MaxReadbackRecords {
			overflowed += count - MaxReadbackRecords
			if log != nil {
				log.Printf("gpu readback overflow: %d candidates discarded this launch (%d total)", count-MaxReadbackRecords, overflowed)
			}
			count = MaxReadbackRecords
		}
		for i := uint32(0); i < count; i++ {
			rec := records[i*recordSize : (i+1)*recordSize]
			var salt [32]byte
			copy(salt[:], rec[0:32])
			var addr [20]byte
			copy(addr[:], rec[32:52])
			leading := int(rec[52])
			total := int(rec[53])
			agg.Offer(salt, addr, leading, total)
		}

		if agg.ShouldStop() {
			return agg.Drain(), bestPtr(agg), nil
		}
	}
}

func bestPtr(agg *aggregator.Aggregator) *types.Candidate {
	best, ok := agg.Best()
	if !ok {
		return nil
	}
	return &best
}

// device wraps the OpenCL handles for one session.
type device struct {
	platform C.cl_platform_id
	id       C.cl_device_id
	context  C.cl_context
	queue    C.cl_command_queue
	program  C.cl_program
	kernel   C.cl_kernel

	bufFactory, bufCalling, bufInitHash C.cl_mem
	bufOut                              C.cl_mem
	bufCount                            C.cl_mem

	runSeed  [4]byte
	workerID uint16
}

func newDevice(index uint8) (*device, error) {
	var numPlatforms C.cl_uint
	if C.clGetPlatformIDs(0, nil, &numPlatforms) != C.CL_SUCCESS || numPlatforms == 0 {
		return nil, fmt.Errorf("no OpenCL platforms available")
	}
	platforms := make([]C.cl_platform_id, numPlatforms)
	C.clGetPlatformIDs(numPlatforms, &platforms[0], nil)

	var numDevices C.cl_uint
	if C.clGetDeviceIDs(platforms[0], C.CL_DEVICE_TYPE_ALL, 0, nil, &numDevices) != C.CL_SUCCESS || numDevices == 0 {
		return nil, fmt.Errorf("no OpenCL devices available")
	}
	if C.cl_uint(index) >= numDevices {
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, numDevices)
	}
	devices := make([]C.cl_device_id, numDevices)
	C.clGetDeviceIDs(platforms[0], C.CL_DEVICE_TYPE_ALL, numDevices, &devices[0], nil)

	var ret C.cl_int
	d := &device{platform: platforms[0], id: devices[index], workerID: uint16(index)}
	d.context = C.clCreateContext(nil, 1, &d.id, nil, nil, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("clCreateContext failed: %d", int(ret))
	}
	d.queue = C.clCreateCommandQueue(d.context, d.id, 0, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("clCreateCommandQueue failed: %d", int(ret))
	}
	return d, nil
}

func (d *device) build() error {
	src, err := kernelSource.ReadFile("kernels/create2.cl")
	if err != nil {
		return fmt.Errorf("reading kernel source: %w", err)
	}
	cSrc := C.CString(string(src))
	defer C.free(unsafe.Pointer(cSrc))
	length := C.size_t(len(src))

	var ret C.cl_int
	d.program = C.clCreateProgramWithSource(d.context, 1, &cSrc, &length, &ret)
	if ret != C.CL_SUCCESS {
		return fmt.Errorf("clCreateProgramWithSource failed: %d", int(ret))
	}
	if C.clBuildProgram(d.program, 1, &d.id, nil, nil, nil) != C.CL_SUCCESS {
		var logSize C.size_t
		C.clGetProgramBuildInfo(d.program, d.id, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize)
		buildLog := make([]byte, logSize)
		if logSize > 0 {
			C.clGetProgramBuildInfo(d.program, d.id, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&buildLog[0]), nil)
		}
		return fmt.Errorf("kernel build failed: %s", string(buildLog))
	}

	name := C.CString("create2_search")
	defer C.free(unsafe.Pointer(name))
	d.kernel = C.clCreateKernel(d.program, name, &ret)
	if ret != C.CL_SUCCESS {
		return fmt.Errorf("clCreateKernel failed: %d", int(ret))
	}
	return nil
}

func (d *device) createBuffers(cfg types.RunConfig, runSeed [4]byte) error {
	d.runSeed = runSeed
	var ret C.cl_int

	mk := func(flags C.cl_mem_flags, size int, data []byte) (C.cl_mem, error) {
		var ptr unsafe.Pointer
		if data != nil {
			ptr = unsafe.Pointer(&data[0])
			flags |= C.CL_MEM_COPY_HOST_PTR
		}
		buf := C.clCreateBuffer(d.context, flags, C.size_t(size), ptr, &ret)
		if ret != C.CL_SUCCESS {
			return nil, fmt.Errorf("clCreateBuffer failed: %d", int(ret))
		}
		return buf, nil
	}

	factory := cfg.FactoryAddress[:]
	calling := cfg.CallingAddress[:]
	initHash := cfg.InitCodeHash[:]

	var err error
	if d.bufFactory, err = mk(C.CL_MEM_READ_ONLY, 20, factory); err != nil {
		return err
	}
	if d.bufCalling, err = mk(C.CL_MEM_READ_ONLY, 20, calling); err != nil {
		return err
	}
	if d.bufInitHash, err = mk(C.CL_MEM_READ_ONLY, 32, initHash); err != nil {
		return err
	}
	if d.bufOut, err = mk(C.CL_MEM_WRITE_ONLY, MaxReadbackRecords*recordSize, nil); err != nil {
		return err
	}
	if d.bufCount, err = mk(C.CL_MEM_READ_WRITE, 4, nil); err != nil {
		return err
	}

	C.clSetKernelArg(d.kernel, 0, C.size_t(unsafe.Sizeof(d.bufFactory)), unsafe.Pointer(&d.bufFactory))
	C.clSetKernelArg(d.kernel, 1, C.size_t(unsafe.Sizeof(d.bufCalling)), unsafe.Pointer(&d.bufCalling))
	C.clSetKernelArg(d.kernel, 2, C.size_t(unsafe.Sizeof(d.bufInitHash)), unsafe.Pointer(&d.bufInitHash))

	var runSeedArg C.uint = C.uint(uint32(runSeed[0])<<24 | uint32(runSeed[1])<<16 | uint32(runSeed[2])<<8 | uint32(runSeed[3]))
	C.clSetKernelArg(d.kernel, 3, C.size_t(unsafe.Sizeof(runSeedArg)), unsafe.Pointer(&runSeedArg))

	var workerIDArg C.ushort = C.ushort(d.workerID)
	C.clSetKernelArg(d.kernel, 4, C.size_t(unsafe.Sizeof(workerIDArg)), unsafe.Pointer(&workerIDArg))

	// arg 5 (iteration_nonce) is set per launch.

	var leadingArg C.uchar = C.uchar(cfg.LeadingZeroesThreshold)
	C.clSetKernelArg(d.kernel, 6, C.size_t(unsafe.Sizeof(leadingArg)), unsafe.Pointer(&leadingArg))
	var totalArg C.uchar = C.uchar(cfg.TotalZeroesThreshold)
	C.clSetKernelArg(d.kernel, 7, C.size_t(unsafe.Sizeof(totalArg)), unsafe.Pointer(&totalArg))

	C.clSetKernelArg(d.kernel, 8, C.size_t(unsafe.Sizeof(d.bufOut)), unsafe.Pointer(&d.bufOut))
	C.clSetKernelArg(d.kernel, 9, C.size_t(unsafe.Sizeof(d.bufCount)), unsafe.Pointer(&d.bufCount))

	var maxRecordsArg C.uint = C.uint(MaxReadbackRecords)
	C.clSetKernelArg(d.kernel, 10, C.size_t(unsafe.Sizeof(maxRecordsArg)), unsafe.Pointer(&maxRecordsArg))

	return nil
}

// launch runs one batch covering globalWorkSize work-items at the given
// iteration_nonce and reads back any reportable candidate records.
func (d *device) launch(iteration uint32) ([]byte, uint32, error) {
	var zero C.uint
	if C.clEnqueueWriteBuffer(d.queue, d.bufCount, C.CL_TRUE, 0, 4, unsafe.Pointer(&zero), 0, nil, nil) != C.CL_SUCCESS {
		return nil, 0, fmt.Errorf("resetting result counter failed")
	}

	iterArg := C.uint(iteration)
	C.clSetKernelArg(d.kernel, 5, C.size_t(unsafe.Sizeof(iterArg)), unsafe.Pointer(&iterArg))

	global := C.size_t(globalWorkSize)
	if C.clEnqueueNDRangeKernel(d.queue, d.kernel, 1, nil, &global, nil, 0, nil, nil) != C.CL_SUCCESS {
		return nil, 0, fmt.Errorf("kernel launch failed")
	}

	var count C.uint
	if C.clEnqueueReadBuffer(d.queue, d.bufCount, C.CL_TRUE, 0, 4, unsafe.Pointer(&count), 0, nil, nil) != C.CL_SUCCESS {
		return nil, 0, fmt.Errorf("reading result counter failed")
	}

	n := uint32(count)
	readN := n
	if readN > MaxReadbackRecords {
		readN = MaxReadbackRecords
	}
	if readN == 0 {
		return nil, n, nil
	}
	out := make([]byte, readN*recordSize)
	if C.clEnqueueReadBuffer(d.queue, d.bufOut, C.CL_TRUE, 0, C.size_t(len(out)), unsafe.Pointer(&out[0]), 0, nil, nil) != C.CL_SUCCESS {
		return nil, 0, fmt.Errorf("reading result buffer failed")
	}
	return out, n, nil
}

func (d *device) releaseBuffers() {
	for _, b := range []C.cl_mem{d.bufFactory, d.bufCalling, d.bufInitHash, d.bufOut, d.bufCount} {
		if b != nil {
			C.clReleaseMemObject(b)
		}
	}
}

func (d *device) release() {
	if d.kernel != nil {
		C.clReleaseKernel(d.kernel)
	}
	if d.program != nil {
		C.clReleaseProgram(d.program)
	}
	if d.queue != nil {
		C.clReleaseCommandQueue(d.queue)
	}
	if d.context != nil {
		C.clReleaseContext(d.context)
	}
}
