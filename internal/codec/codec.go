// Package codec implements the fixed-layout binary encoding used by the
// recycler program's accounts and instruction payloads: little-endian
// fixed-width integers, u32-length-prefixed strings, single-byte bools
// and option tags, 32-byte public keys.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrShortBuffer is returned when the input ends before a field.
var ErrShortBuffer = errors.New("codec: short buffer")

// PubkeyLen is the raw length of a ledger public key.
const PubkeyLen = 32

// AppendU8 appends a single byte.
func AppendU8(dst []byte, v uint8) []byte {
	return append(dst, v)
}

// AppendU16 appends a little-endian uint16.
func AppendU16(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

// AppendU32 appends a little-endian uint32.
func AppendU32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendU64 appends a little-endian uint64.
func AppendU64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendI64 appends a little-endian int64.
func AppendI64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

// AppendBool appends a bool as one byte.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// AppendString appends a u32 length prefix followed by raw bytes.
func AppendString(dst []byte, s string) []byte {
	dst = AppendU32(dst, uint32(len(s)))
	return append(dst, s...)
}

// AppendPubkey decodes a base58 public key and appends its 32 raw bytes.
func AppendPubkey(dst []byte, pubkey string) ([]byte, error) {
	raw, err := base58.Decode(pubkey)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", pubkey, err)
	}
	if len(raw) != PubkeyLen {
		return nil, fmt.Errorf("pubkey %q: expected %d bytes, got %d", pubkey, PubkeyLen, len(raw))
	}
	return append(dst, raw...), nil
}

// Decoder reads fields sequentially from a fixed-layout buffer. The
// first error sticks; callers check Err once after all reads.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, len(d.buf)-d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// U8 reads one byte.
func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian uint16.
func (d *Decoder) U16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64.
func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// I64 reads a little-endian int64.
func (d *Decoder) I64() int64 {
	return int64(d.U64())
}

// Bool reads one byte as a bool. Any nonzero byte is true.
func (d *Decoder) Bool() bool {
	return d.U8() != 0
}

// String reads a u32 length prefix followed by raw bytes.
func (d *Decoder) String() string {
	n := d.U32()
	if d.err != nil {
		return ""
	}
	b := d.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// Pubkey reads 32 raw bytes and returns them base58-encoded.
func (d *Decoder) Pubkey() string {
	b := d.take(PubkeyLen)
	if b == nil {
		return ""
	}
	return base58.Encode(b)
}

// OptionU32 reads a 1-byte tag followed by a uint32 when the tag is set.
func (d *Decoder) OptionU32() *uint32 {
	if d.U8() == 0 {
		return nil
	}
	v := d.U32()
	if d.err != nil {
		return nil
	}
	return &v
}

// OptionI64 reads a 1-byte tag followed by an int64 when the tag is set.
func (d *Decoder) OptionI64() *int64 {
	if d.U8() == 0 {
		return nil
	}
	v := d.I64()
	if d.err != nil {
		return nil
	}
	return &v
}
