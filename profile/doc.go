// Package profile provides optional runtime profiling for runmd.
//
// Profiling integrates [github.com/pkg/profile] behind the "pprof" build
// tag. Without the tag every operation is a no-op with zero overhead; with
// it, the CLI exposes --pprof-mode and --pprof-dir flags selecting one of
// the modes listed by [Modes] (cpu, heap, allocs, block, mutex, goroutine,
// thread, clock, trace, mem).
//
// Analyze the written profiles with the standard tooling:
//
//	go tool pprof ./runmd /path/to/cpu.pprof
//	go tool pprof -http=: /path/to/heap.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
