package wire

import (
	"encoding/binary"
	"fmt"
)

// FrameSize is the fixed size of every frame in bytes.
const FrameSize = 64

// Frame ops.
const (
	// OpControl frames carry interner and blob chunks before the block.
	OpControl byte = 0x00
	// OpAdd frames materialize a node.
	OpAdd byte = 0x0A
	// OpDelimiter frames bracket a block; the first opens, the second
	// closes.
	OpDelimiter byte = 0x0B
	// OpDefine frames attach a property to the preceding add or extension.
	OpDefine byte = 0x0D
	// OpExtension frames load an extension under the preceding add.
	OpExtension byte = 0x0E
)

// Fixed byte offsets within a frame.
//
//	[0]       op
//	[1..9]    name intern key (u64 LE), [9..17] reserved
//	add:       [17] type tag, [18..34] value cell
//	define:    [17..25] symbol intern key, [25..33] reserved,
//	           [33] type tag, [34..50] value cell
//	extension: same layout as define
//	[56..60]  entity id (u32 LE), [60..64] reserved
const (
	offName        = 1
	offSymbol      = 17
	offAddType     = 17
	offAddValue    = 18
	offDefineType  = 33
	offDefineValue = 34
	offEntity      = 56

	// CellSize is the width of a value cell.
	CellSize = 16
)

// controlPayload is the chunk capacity of one control frame.
const controlPayload = FrameSize - 1

// Frame is one fixed 64-byte wire record.
type Frame [FrameSize]byte

// Op returns the frame's operation byte.
func (f *Frame) Op() byte { return f[0] }

// SetOp sets the frame's operation byte.
func (f *Frame) SetOp(op byte) { f[0] = op }

// Name returns the intern key stored in the name field.
func (f *Frame) Name() uint64 {
	return binary.LittleEndian.Uint64(f[offName:])
}

// SetName stores an intern key in the name field.
func (f *Frame) SetName(key uint64) {
	binary.LittleEndian.PutUint64(f[offName:], key)
}

// Symbol returns the intern key stored in the symbol field of define and
// extension frames.
func (f *Frame) Symbol() uint64 {
	return binary.LittleEndian.Uint64(f[offSymbol:])
}

// SetSymbol stores an intern key in the symbol field.
func (f *Frame) SetSymbol(key uint64) {
	binary.LittleEndian.PutUint64(f[offSymbol:], key)
}

// Aux returns the key stored in the reserved half of the name field. Add
// frames use it to carry the node's optional leading tag.
func (f *Frame) Aux() uint64 {
	return binary.LittleEndian.Uint64(f[offName+8:])
}

// SetAux stores a key in the reserved half of the name field.
func (f *Frame) SetAux(key uint64) {
	binary.LittleEndian.PutUint64(f[offName+8:], key)
}

// Entity returns the frame's entity id.
func (f *Frame) Entity() uint32 {
	return binary.LittleEndian.Uint32(f[offEntity:])
}

// SetEntity stores the frame's entity id.
func (f *Frame) SetEntity(id uint32) {
	binary.LittleEndian.PutUint32(f[offEntity:], id)
}

// TypeTag returns the type tag byte for the frame's op. The tag sits at a
// different offset for add frames than for define and extension frames.
func (f *Frame) TypeTag() byte {
	if f.Op() == OpAdd {
		return f[offAddType]
	}

	return f[offDefineType]
}

// SetTypeTag stores the type tag byte at the offset for the frame's op.
func (f *Frame) SetTypeTag(tag byte) {
	if f.Op() == OpAdd {
		f[offAddType] = tag
	} else {
		f[offDefineType] = tag
	}
}

// Cell returns the frame's 16-byte value cell for the frame's op.
func (f *Frame) Cell() []byte {
	if f.Op() == OpAdd {
		return f[offAddValue : offAddValue+CellSize]
	}

	return f[offDefineValue : offDefineValue+CellSize]
}

// Chunk returns the control payload bytes of a control frame.
func (f *Frame) Chunk() []byte { return f[1:] }

// String renders the frame op and entity for diagnostics.
func (f *Frame) String() string {
	return fmt.Sprintf("frame{op:%#02x entity:%d}", f.Op(), f.Entity())
}
