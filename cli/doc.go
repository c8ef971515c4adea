// Package cli contains the command line interface for runmd.
//
// # Commands
//
//   - parse:  lex and parse runmd sources, printing the instruction stream
//   - export: compile sources and export the resources as YAML
//   - encode: compile sources and persist them as wire frames
//   - decode: read persisted wire frames and export them as YAML
//
// # Logging Options
//
//   - --log-level:  minimum log level (trace, debug, info, warn, error)
//   - --log-format: output format (json, text)
//   - --log-time:   timestamp layout (RFC3339, RFC3339Nano, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorized pretty printing
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: enable profiling (cpu, heap, allocs, ...)
//   - --pprof-dir:  profile output directory
package cli
