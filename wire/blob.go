package wire

import (
	"encoding/binary"
	"log/slog"

	"github.com/ardnew/runmd/attr"
)

// table is the per-sequence symbol table. Encoding interns every symbol,
// extent, and set a block references; the table is marshaled into control
// frames so decoding never depends on process state.
type table struct {
	strOrder []uint64
	strs     map[uint64]string
	setOrder []uint64
	sets     map[uint64][]string
	blob     []byte
}

func newTable() *table {
	return &table{
		strs: make(map[uint64]string),
		sets: make(map[uint64][]string),
	}
}

// intern stores a string under its identity hash and returns the key.
func (t *table) intern(s string) uint64 {
	key := attr.HashIdent(s)
	if key == 0 {
		return 0
	}

	if _, ok := t.strs[key]; !ok {
		t.strs[key] = s
		t.strOrder = append(t.strOrder, key)
	}

	return key
}

// internSet stores an ordered member list and returns its key.
func (t *table) internSet(members []string) uint64 {
	key := attr.InternSet(members)
	if key == 0 {
		return 0
	}

	if _, ok := t.sets[key]; !ok {
		t.sets[key] = members
		t.setOrder = append(t.setOrder, key)
	}

	return key
}

// lookup resolves an intern key. Key 0 is the empty string.
func (t *table) lookup(key uint64) (string, error) {
	if key == 0 {
		return "", nil
	}

	s, ok := t.strs[key]
	if !ok {
		return "", ErrMissingSymbol.With(slog.Uint64("key", key))
	}

	return s, nil
}

// lookupSet resolves a set key.
func (t *table) lookupSet(key uint64) ([]string, error) {
	if key == 0 {
		return nil, nil
	}

	members, ok := t.sets[key]
	if !ok {
		return nil, ErrMissingSymbol.With(slog.Uint64("key", key))
	}

	return members, nil
}

// alloc appends data to the blob device, returning its extent.
func (t *table) alloc(data []byte) (length, offset uint64) {
	offset = uint64(len(t.blob))
	t.blob = append(t.blob, data...)

	return uint64(len(data)), offset
}

// slice reads an extent from the blob device.
func (t *table) slice(length, offset uint64) ([]byte, error) {
	end := offset + length
	if end < offset || end > uint64(len(t.blob)) {
		return nil, ErrBadExtent.With(
			slog.Uint64("length", length),
			slog.Uint64("offset", offset),
			slog.Int("blob", len(t.blob)),
		)
	}

	return t.blob[offset:end], nil
}

// marshal serializes the table and blob device into the control stream:
// string entries, set entries, then blob bytes, each length-prefixed.
func (t *table) marshal() []byte {
	var out []byte

	out = binary.LittleEndian.AppendUint32(out, uint32(len(t.strOrder)))
	for _, key := range t.strOrder {
		s := t.strs[key]
		out = binary.LittleEndian.AppendUint64(out, key)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}

	out = binary.LittleEndian.AppendUint32(out, uint32(len(t.setOrder)))
	for _, key := range t.setOrder {
		members := t.sets[key]
		out = binary.LittleEndian.AppendUint64(out, key)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(members)))

		for _, m := range members {
			out = binary.LittleEndian.AppendUint32(out, uint32(len(m)))
			out = append(out, m...)
		}
	}

	out = binary.LittleEndian.AppendUint64(out, uint64(len(t.blob)))
	out = append(out, t.blob...)

	return out
}

// controlReader consumes the concatenated control stream with truncation
// checks.
type controlReader struct {
	data []byte
	pos  int
}

func (r *controlReader) bytes(n int) ([]byte, error) {
	// Compare against the remaining bytes rather than r.pos+n, which can
	// wrap for a crafted length.
	if n < 0 || n > len(r.data)-r.pos {
		return nil, ErrTruncated.With(
			slog.Int("want", n),
			slog.Int("have", len(r.data)-r.pos),
		)
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

func (r *controlReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *controlReader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// unmarshalTable reconstructs a table from the control stream.
func unmarshalTable(data []byte) (*table, error) {
	t := newTable()
	r := &controlReader{data: data}

	nstr, err := r.u32()
	if err != nil {
		return nil, err
	}

	for range nstr {
		key, err := r.u64()
		if err != nil {
			return nil, err
		}

		slen, err := r.u32()
		if err != nil {
			return nil, err
		}

		b, err := r.bytes(int(slen))
		if err != nil {
			return nil, err
		}

		t.strs[key] = string(b)
		t.strOrder = append(t.strOrder, key)
	}

	nset, err := r.u32()
	if err != nil {
		return nil, err
	}

	for range nset {
		key, err := r.u64()
		if err != nil {
			return nil, err
		}

		count, err := r.u32()
		if err != nil {
			return nil, err
		}

		// Each member costs at least its u32 length prefix, so a count
		// beyond the remaining bytes is a crafted stream.
		if int(count) > (len(r.data)-r.pos)/4 {
			return nil, ErrTruncated.With(
				slog.Int("members", int(count)),
				slog.Int("have", len(r.data)-r.pos),
			)
		}

		members := make([]string, 0, count)

		for range count {
			mlen, err := r.u32()
			if err != nil {
				return nil, err
			}

			b, err := r.bytes(int(mlen))
			if err != nil {
				return nil, err
			}

			members = append(members, string(b))
		}

		t.sets[key] = members
		t.setOrder = append(t.setOrder, key)
	}

	blen, err := r.u64()
	if err != nil {
		return nil, err
	}

	blob, err := r.bytes(int(blen))
	if err != nil {
		return nil, err
	}

	t.blob = blob

	return t, nil
}
