package wire

import (
	"encoding/binary"
	"log/slog"
	"math"
	"strings"

	"github.com/ardnew/runmd/attr"
	"github.com/ardnew/runmd/compile"
	"github.com/ardnew/runmd/lang"
	"github.com/ardnew/runmd/store"
)

// Encode serializes one compiled block as a standalone frame sequence:
// control frames carrying the symbol table and blob device, followed by a
// delimiter-bracketed frame per instruction.
func Encode(block *compile.Block) ([]Frame, error) {
	enc := &encoder{table: newTable()}

	body, err := enc.block(block)
	if err != nil {
		return nil, ErrCodec.Wrap(err)
	}

	control := enc.table.marshal()
	frames := make([]Frame, 0, chunkCount(len(control))+len(body))

	for pos := 0; pos < len(control); pos += controlPayload {
		var f Frame

		f.SetOp(OpControl)
		copy(f.Chunk(), control[pos:])
		frames = append(frames, f)
	}

	return append(frames, body...), nil
}

func chunkCount(n int) int {
	return (n + controlPayload - 1) / controlPayload
}

type encoder struct {
	table *table
}

func (enc *encoder) block(block *compile.Block) ([]Frame, error) {
	var frames []Frame

	var begin Frame

	begin.SetOp(OpDelimiter)
	begin.SetEntity(block.Entity)

	if len(block.Idents) > 0 {
		begin.SetName(enc.table.intern(block.Idents[0]))
	}

	if len(block.Idents) > 1 {
		begin.SetSymbol(enc.table.intern(block.Idents[1]))
	}

	frames = append(frames, begin)

	for _, node := range block.Nodes {
		nf, err := enc.node(node)
		if err != nil {
			return nil, err
		}

		frames = append(frames, nf...)
	}

	var end Frame

	end.SetOp(OpDelimiter)
	end.SetEntity(block.Entity)

	return append(frames, end), nil
}

func (enc *encoder) node(node *compile.Node) ([]Frame, error) {
	var add Frame

	add.SetOp(OpAdd)
	add.SetName(enc.table.intern(node.Name))
	add.SetAux(enc.table.intern(node.Tag))
	add.SetEntity(node.Entity)
	add.SetTypeTag(byte(node.Value.Type))

	if err := enc.cell(add.Cell(), node.Value); err != nil {
		return nil, err
	}

	frames := []Frame{add}

	for _, prop := range node.Properties {
		f, err := enc.define(prop, node.Entity)
		if err != nil {
			return nil, err
		}

		frames = append(frames, f)
	}

	for _, ext := range node.Extensions {
		f, err := enc.extension(ext, node.Entity)
		if err != nil {
			return nil, err
		}

		frames = append(frames, f)

		for _, prop := range ext.Properties {
			pf, err := enc.define(prop, node.Entity)
			if err != nil {
				return nil, err
			}

			frames = append(frames, pf)
		}
	}

	return frames, nil
}

func (enc *encoder) define(prop compile.Property, entity uint32) (Frame, error) {
	var f Frame

	f.SetOp(OpDefine)
	f.SetName(enc.table.intern(prop.Owner))
	f.SetSymbol(enc.table.intern(prop.Name))
	f.SetEntity(entity)
	f.SetTypeTag(byte(prop.Value.Type))

	if err := enc.cell(f.Cell(), prop.Value); err != nil {
		return Frame{}, err
	}

	return f, nil
}

func (enc *encoder) extension(ext *compile.Extension, entity uint32) (Frame, error) {
	var f Frame

	f.SetOp(OpExtension)
	f.SetName(enc.table.intern(ext.Address))
	f.SetSymbol(enc.table.intern(addressSuffix(ext.Address)))
	f.SetEntity(entity)

	if ext.Input == "" {
		f.SetTypeTag(byte(attr.TypeEmpty))

		return f, nil
	}

	f.SetTypeTag(byte(attr.TypeText))

	return f, enc.cell(f.Cell(), attr.NewText(ext.Input))
}

// cell writes a value into a 16-byte cell according to its storage shape.
func (enc *encoder) cell(cell []byte, v attr.Value) error {
	switch v.Type {
	case attr.TypeEmpty:

	case attr.TypeBool:
		if v.Bool {
			cell[0] = 1
		}

	case attr.TypeInt, attr.TypeIntPair, attr.TypeIntRange:
		for i, n := range v.Int {
			binary.LittleEndian.PutUint32(cell[i*4:], uint32(n))
		}

	case attr.TypeFloat, attr.TypeFloatPair, attr.TypeFloatRange:
		for i, n := range v.Float {
			binary.LittleEndian.PutUint32(cell[i*4:], math.Float32bits(n))
		}

	case attr.TypeReference:
		binary.LittleEndian.PutUint64(cell, v.Ref)

	case attr.TypeSymbol:
		binary.LittleEndian.PutUint64(cell, enc.table.intern(v.Str))

	case attr.TypeComplex:
		binary.LittleEndian.PutUint64(cell, enc.table.internSet(v.Set))

	case attr.TypeText:
		length, offset := enc.table.alloc([]byte(v.Str))
		binary.LittleEndian.PutUint64(cell, length)
		binary.LittleEndian.PutUint64(cell[8:], offset)

	case attr.TypeBin:
		length, offset := enc.table.alloc(v.Bin)
		binary.LittleEndian.PutUint64(cell, length)
		binary.LittleEndian.PutUint64(cell[8:], offset)

	default:
		return ErrUnknownType.With(slog.Int("tag", int(v.Type)))
	}

	return nil
}

func addressSuffix(addr string) string {
	if idx := strings.LastIndexByte(addr, '.'); idx >= 0 {
		return addr[idx+1:]
	}

	return addr
}

// EncodeAll serializes a sequence of blocks back to back. Each block keeps
// its own control frames, so the concatenation remains standalone.
func EncodeAll(blocks []*compile.Block) ([]Frame, error) {
	var frames []Frame

	for _, block := range blocks {
		bf, err := Encode(block)
		if err != nil {
			return nil, err
		}

		frames = append(frames, bf...)
	}

	return frames, nil
}

// DecodeAll splits a concatenated frame sequence into its blocks. Like
// Decode it fails as a whole on any malformed frame.
func DecodeAll(frames []Frame) ([]*compile.Block, error) {
	var blocks []*compile.Block

	for len(frames) > 0 {
		end, err := blockEnd(frames)
		if err != nil {
			return nil, ErrCodec.Wrap(err)
		}

		block, err := Decode(frames[:end])
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
		frames = frames[end:]
	}

	return blocks, nil
}

// blockEnd returns the frame count of the leading block: its control
// prefix plus everything through the closing delimiter.
func blockEnd(frames []Frame) (int, error) {
	delims := 0

	for i := range frames {
		if frames[i].Op() == OpDelimiter {
			delims++

			if delims == 2 {
				return i + 1, nil
			}
		}
	}

	return 0, ErrTruncated.With(slog.Int("frames", len(frames)))
}

// Decode reconstructs a compiled block from a frame sequence. It fails as
// a whole on any malformed frame; a partial block is never returned.
func Decode(frames []Frame) (*compile.Block, error) {
	block, err := decode(frames)
	if err != nil {
		return nil, ErrCodec.Wrap(err)
	}

	return block, nil
}

func decode(frames []Frame) (*compile.Block, error) {
	var control []byte

	body := frames

	for len(body) > 0 && body[0].Op() == OpControl {
		control = append(control, body[0].Chunk()...)
		body = body[1:]
	}

	tbl, err := unmarshalTable(control)
	if err != nil {
		return nil, err
	}

	dec := &decoder{table: tbl}

	return dec.decodeBlock(body)
}

type decoder struct {
	table *table

	block  *compile.Block
	node   *compile.Node
	ext    *compile.Extension
	closed bool
}

func (dec *decoder) decodeBlock(frames []Frame) (*compile.Block, error) {
	for i := range frames {
		f := &frames[i]

		switch f.Op() {
		case OpDelimiter:
			if err := dec.delimiter(f); err != nil {
				return nil, err
			}

		case OpAdd:
			if err := dec.add(f); err != nil {
				return nil, err
			}

		case OpDefine:
			if err := dec.define(f); err != nil {
				return nil, err
			}

		case OpExtension:
			if err := dec.extension(f); err != nil {
				return nil, err
			}

		case OpControl:
			// Control frames belong ahead of the body.
			return nil, ErrStrayFrame.With(slog.String("frame", f.String()))

		default:
			return nil, ErrUnknownOp.With(slog.Int("op", int(f.Op())))
		}
	}

	if dec.block == nil || !dec.closed {
		return nil, ErrTruncated.With(slog.Int("frames", len(frames)))
	}

	return dec.block, nil
}

func (dec *decoder) delimiter(f *Frame) error {
	if dec.block != nil {
		// Second delimiter closes the block.
		if dec.closed {
			return ErrStrayFrame.With(slog.String("frame", f.String()))
		}

		dec.closed = true
		dec.node = nil
		dec.ext = nil

		return nil
	}

	name, err := dec.table.lookup(f.Name())
	if err != nil {
		return err
	}

	symbol, err := dec.table.lookup(f.Symbol())
	if err != nil {
		return err
	}

	block := &compile.Block{Entity: f.Entity()}

	switch {
	case name == "":
		block.Kind = lang.KindRootBlock
	case symbol == "":
		block.Kind = lang.KindControlBlock
		block.Idents = []string{name}
	default:
		block.Kind = lang.KindNamedBlock
		block.Idents = []string{name, symbol}
	}

	dec.block = block

	return nil
}

func (dec *decoder) add(f *Frame) error {
	if dec.block == nil || dec.closed {
		return ErrStrayFrame.With(slog.String("frame", f.String()))
	}

	name, err := dec.table.lookup(f.Name())
	if err != nil {
		return err
	}

	tag, err := dec.table.lookup(f.Aux())
	if err != nil {
		return err
	}

	value, err := dec.cell(f)
	if err != nil {
		return err
	}

	node := &compile.Node{
		Entity: f.Entity(),
		Name:   name,
		Tag:    tag,
		Value:  value,
		Scope:  store.NewNode(),
	}

	_ = node.Scope.Put(store.KeyOf(name, value.Type), value)

	dec.block.Nodes = append(dec.block.Nodes, node)
	dec.node = node
	dec.ext = nil

	return nil
}

func (dec *decoder) define(f *Frame) error {
	if dec.node == nil || dec.closed {
		return ErrStrayFrame.With(slog.String("frame", f.String()))
	}

	owner, err := dec.table.lookup(f.Name())
	if err != nil {
		return err
	}

	name, err := dec.table.lookup(f.Symbol())
	if err != nil {
		return err
	}

	value, err := dec.cell(f)
	if err != nil {
		return err
	}

	prop := compile.Property{Owner: owner, Name: name, Value: value}

	if dec.ext != nil && owner == dec.ext.Address {
		dec.ext.Properties = append(dec.ext.Properties, prop)
	} else {
		dec.node.Properties = append(dec.node.Properties, prop)
	}

	_ = dec.node.Scope.Put(store.KeyOf(prop.Path(), value.Type), value)

	return nil
}

func (dec *decoder) extension(f *Frame) error {
	if dec.node == nil || dec.closed {
		return ErrStrayFrame.With(slog.String("frame", f.String()))
	}

	addr, err := dec.table.lookup(f.Name())
	if err != nil {
		return err
	}

	if addr == "" {
		return ErrMissingSymbol.With(slog.Uint64("key", f.Name()))
	}

	ext := &compile.Extension{Address: addr}

	if attr.Type(f.TypeTag()) != attr.TypeEmpty {
		value, err := dec.cell(f)
		if err != nil {
			return err
		}

		ext.Input = value.Str
	}

	dec.node.Extensions = append(dec.node.Extensions, ext)
	dec.ext = ext

	return nil
}

// cell reads a frame's typed value cell.
func (dec *decoder) cell(f *Frame) (attr.Value, error) {
	t := attr.Type(f.TypeTag())
	if !t.Valid() {
		return attr.Value{}, ErrUnknownType.With(slog.Int("tag", int(t)))
	}

	cell := f.Cell()

	switch t {
	case attr.TypeEmpty:
		return attr.Empty(), nil

	case attr.TypeBool:
		return attr.NewBool(cell[0] != 0), nil

	case attr.TypeInt:
		return attr.NewInt(int32(binary.LittleEndian.Uint32(cell))), nil

	case attr.TypeIntPair:
		return attr.NewIntPair(
			int32(binary.LittleEndian.Uint32(cell)),
			int32(binary.LittleEndian.Uint32(cell[4:])),
		), nil

	case attr.TypeIntRange:
		return attr.NewIntRange(
			int32(binary.LittleEndian.Uint32(cell)),
			int32(binary.LittleEndian.Uint32(cell[4:])),
			int32(binary.LittleEndian.Uint32(cell[8:])),
		), nil

	case attr.TypeFloat:
		return attr.NewFloat(
			math.Float32frombits(binary.LittleEndian.Uint32(cell)),
		), nil

	case attr.TypeFloatPair:
		return attr.NewFloatPair(
			math.Float32frombits(binary.LittleEndian.Uint32(cell)),
			math.Float32frombits(binary.LittleEndian.Uint32(cell[4:])),
		), nil

	case attr.TypeFloatRange:
		return attr.NewFloatRange(
			math.Float32frombits(binary.LittleEndian.Uint32(cell)),
			math.Float32frombits(binary.LittleEndian.Uint32(cell[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(cell[8:])),
		), nil

	case attr.TypeReference:
		return attr.NewReference(binary.LittleEndian.Uint64(cell)), nil

	case attr.TypeSymbol:
		s, err := dec.table.lookup(binary.LittleEndian.Uint64(cell))
		if err != nil {
			return attr.Value{}, err
		}

		return attr.NewSymbol(s), nil

	case attr.TypeComplex:
		members, err := dec.table.lookupSet(binary.LittleEndian.Uint64(cell))
		if err != nil {
			return attr.Value{}, err
		}

		return attr.NewComplex(members...), nil

	case attr.TypeText:
		data, err := dec.table.slice(
			binary.LittleEndian.Uint64(cell),
			binary.LittleEndian.Uint64(cell[8:]),
		)
		if err != nil {
			return attr.Value{}, err
		}

		return attr.NewText(string(data)), nil

	case attr.TypeBin:
		data, err := dec.table.slice(
			binary.LittleEndian.Uint64(cell),
			binary.LittleEndian.Uint64(cell[8:]),
		)
		if err != nil {
			return attr.Value{}, err
		}

		return attr.NewBin(append([]byte(nil), data...)), nil

	default:
		return attr.Value{}, ErrUnknownType.With(slog.Int("tag", int(t)))
	}
}
