// Package attr defines the attribute value model shared by the runmd
// language front-end, the resource compiler, and the wire codec.
//
// An attribute value has one of a fixed catalog of primitive types, each with
// exact storage semantics: small scalars are inlined, symbols and complexes
// are interned in a process-wide table, and text/binary payloads are stored
// as out-of-band blobs referenced by extent. Custom value types can be
// registered by name; they declare which storage shape they use so the wire
// codec can encode them without knowing their semantics.
package attr
