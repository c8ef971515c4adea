// Package cmd provides the runmd subcommands: parse, export, encode, and
// decode.
package cmd
