// Package wire encodes compiled blocks as sequences of fixed 64-byte
// frames. Each instruction of a block becomes exactly one frame; variable
// data (symbols and extents) is carried out of band by 0x00 control frames
// that precede the block frames, so a frame sequence is fully standalone.
// Decoding is all-or-nothing: a truncated control stream, unknown op,
// unknown type tag, or missing interner entry fails the whole sequence.
//
// Transient-scope data is never encoded.
package wire
