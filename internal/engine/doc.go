// Package engine loads the base model plus LoRA adapter and runs the humanize
// generation pass. It is structured into small files by concern:
//
//   - adapter_iface.go: InferenceAdapter/InferSession contracts and parameter types.
//   - device.go: compute device probe and per-device precision.
//   - loader.go: adapter discovery and ordered base-model fallback (Load).
//   - generate.go: Humanizer service object, prompt, echo stripping.
//   - ngram.go: no-repeat-n-gram guard applied to the token stream.
//   - errors.go: error types and helpers (IsAdapterNotFound, IsModelUnavailable, ...).
//   - metrics.go: Prometheus collectors for loads and generations.
//
// Runtimes:
//
//   - llama-server (default): adapter_llama_server.go talks to a running
//     llama.cpp server over HTTP. The LoRA adapter must be passed to the server
//     with --lora; Load enables it through /lora-adapters.
//
//   - In-process llama: adapter_llama.go uses go-llama.cpp and is enabled with
//     `-tags=llama` (CGO; llama_cgo.go carries the linker hints). Without the
//     tag adapter_llama_stub.go fails fast with a dependency-unavailable error.
package engine
