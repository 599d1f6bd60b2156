package engine

import (
	"os"
	"os/exec"
	"strings"
)

// Compute devices.
const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// cudaProbe reports whether an NVIDIA driver is present. Replaced in tests.
var cudaProbe = func() bool {
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// CUDAAvailable reports whether an NVIDIA accelerator was detected.
func CUDAAvailable() bool { return cudaProbe() }

// ProbeDevice resolves the compute device. An explicit "cuda" or "cpu" wins;
// anything else ("auto", "") probes for CUDA.
func ProbeDevice(override string) string {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case DeviceCUDA:
		return DeviceCUDA
	case DeviceCPU:
		return DeviceCPU
	}
	if cudaProbe() {
		return DeviceCUDA
	}
	return DeviceCPU
}

// Precision describes how the base model is placed and stored for a device.
type Precision struct {
	// GPULayers is the number of layers offloaded to the accelerator.
	GPULayers int
	// F16 keeps the KV cache in half precision.
	F16 bool
}

// allLayers offloads every layer; llama.cpp clamps to the model's layer count.
const allLayers = 999

// PrecisionFor returns half precision with full offload on CUDA and f32 on CPU.
func PrecisionFor(device string) Precision {
	if device == DeviceCUDA {
		return Precision{GPULayers: allLayers, F16: true}
	}
	return Precision{}
}
