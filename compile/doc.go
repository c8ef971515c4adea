// Package compile turns parsed instruction streams into addressed, typed
// resources. Each fenced block becomes a [Block] of compiled nodes; node
// and property values are parsed through the attribute type registry and
// written into scoped storage. Extension loads may complete asynchronously;
// properties defined against a pending extension are queued and drained in
// source order once the load finishes, and a failed load isolates its node
// without disturbing siblings.
package compile
