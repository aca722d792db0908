// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package fory

import (
	"encoding/binary"
	"math"
)

// ByteBuffer is the single read/write buffer used by one serialization
// pass (spec §4.1). It keeps independent reader and writer cursors so a
// buffer produced by Serialize can be handed straight to Deserialize
// without slicing.
type ByteBuffer struct {
	data         []byte
	readerIndex  int
	writerIndex  int
}

// NewByteBuffer wraps data for reading, or starts a fresh growable buffer
// for writing when data is nil.
func NewByteBuffer(data []byte) *ByteBuffer {
	if data == nil {
		return &ByteBuffer{data: make([]byte, 0, 64)}
	}
	return &ByteBuffer{data: data, writerIndex: len(data)}
}

func (b *ByteBuffer) Reserve(n int) {
	need := b.writerIndex + n
	if need <= cap(b.data) {
		return
	}
	grown := make([]byte, len(b.data), need*2+16)
	copy(grown, b.data)
	b.data = grown
}

func (b *ByteBuffer) grow(n int) {
	b.Reserve(n)
	if b.writerIndex+n > len(b.data) {
		b.data = b.data[:b.writerIndex+n]
	}
}

// WriterIndex returns the number of bytes written so far.
func (b *ByteBuffer) WriterIndex() int { return b.writerIndex }

func (b *ByteBuffer) SetWriterIndex(idx int) { b.writerIndex = idx }

// ReaderIndex returns the current read cursor.
func (b *ByteBuffer) ReaderIndex() int { return b.readerIndex }

func (b *ByteBuffer) SetReaderIndex(idx int) { b.readerIndex = idx }

// Len reports the total number of written bytes, an alias for WriterIndex
// kept for parity with the Rust Writer::len.
func (b *ByteBuffer) Len() int { return b.writerIndex }

// Dump returns the written portion of the buffer.
func (b *ByteBuffer) Dump() []byte {
	return b.data[:b.writerIndex]
}

// GetByteSlice returns a read-only view of [start, end).
func (b *ByteBuffer) GetByteSlice(start, end int) []byte {
	b.checkBounds(start, end-start)
	return b.data[start:end]
}

// Slice returns a new ByteBuffer view sharing the backing array, used by
// the out-of-band / zero-copy path (spec §6.1, teacher's BufferObject).
func (b *ByteBuffer) Slice(readerIndex, length int) *ByteBuffer {
	b.checkBounds(readerIndex, length)
	return &ByteBuffer{data: b.data[readerIndex : readerIndex+length], writerIndex: length}
}

func (b *ByteBuffer) checkBounds(offset, n int) {
	if offset < 0 || n < 0 || offset+n > len(b.data) {
		panic(newBufferOutOfBoundError(offset, n, len(b.data)))
	}
}

func (b *ByteBuffer) ensureReadable(n int) {
	if b.readerIndex+n > b.writerIndex {
		panic(newBufferOutOfBoundError(b.readerIndex, n, b.writerIndex))
	}
}

// Skip advances the writer cursor by len bytes, zero-filling them; used to
// reserve space for later backpatching (spec §4.1 set_bytes).
func (b *ByteBuffer) Skip(length int) {
	b.grow(length)
	b.writerIndex += length
}

// SetBytes overwrites data at offset without moving the writer cursor;
// used to backpatch the compatible-mode meta offset (spec §4.6).
func (b *ByteBuffer) SetBytes(offset int, data []byte) {
	b.checkBounds(offset, len(data))
	copy(b.data[offset:offset+len(data)], data)
}

func (b *ByteBuffer) WriteBool(v bool) {
	if v {
		b.WriteByte_(1)
	} else {
		b.WriteByte_(0)
	}
}

func (b *ByteBuffer) ReadBool() bool {
	return b.ReadByte_() != 0
}

func (b *ByteBuffer) WriteByte_(v byte) {
	b.grow(1)
	b.data[b.writerIndex] = v
	b.writerIndex++
}

func (b *ByteBuffer) ReadByte_() byte {
	b.ensureReadable(1)
	v := b.data[b.readerIndex]
	b.readerIndex++
	return v
}

func (b *ByteBuffer) WriteInt8(v int8) { b.WriteByte_(byte(v)) }
func (b *ByteBuffer) ReadInt8() int8   { return int8(b.ReadByte_()) }

func (b *ByteBuffer) WriteInt16(v int16) {
	b.grow(2)
	binary.LittleEndian.PutUint16(b.data[b.writerIndex:], uint16(v))
	b.writerIndex += 2
}

func (b *ByteBuffer) ReadInt16() int16 {
	b.ensureReadable(2)
	v := int16(binary.LittleEndian.Uint16(b.data[b.readerIndex:]))
	b.readerIndex += 2
	return v
}

func (b *ByteBuffer) WriteUint16(v uint16) {
	b.grow(2)
	binary.LittleEndian.PutUint16(b.data[b.writerIndex:], v)
	b.writerIndex += 2
}

func (b *ByteBuffer) ReadUint16() uint16 {
	b.ensureReadable(2)
	v := binary.LittleEndian.Uint16(b.data[b.readerIndex:])
	b.readerIndex += 2
	return v
}

func (b *ByteBuffer) WriteInt32(v int32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], uint32(v))
	b.writerIndex += 4
}

func (b *ByteBuffer) ReadInt32() int32 {
	b.ensureReadable(4)
	v := int32(binary.LittleEndian.Uint32(b.data[b.readerIndex:]))
	b.readerIndex += 4
	return v
}

func (b *ByteBuffer) WriteUint32(v uint32) {
	b.grow(4)
	binary.LittleEndian.PutUint32(b.data[b.writerIndex:], v)
	b.writerIndex += 4
}

func (b *ByteBuffer) ReadUint32() uint32 {
	b.ensureReadable(4)
	v := binary.LittleEndian.Uint32(b.data[b.readerIndex:])
	b.readerIndex += 4
	return v
}

func (b *ByteBuffer) WriteInt64(v int64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], uint64(v))
	b.writerIndex += 8
}

func (b *ByteBuffer) ReadInt64() int64 {
	b.ensureReadable(8)
	v := int64(binary.LittleEndian.Uint64(b.data[b.readerIndex:]))
	b.readerIndex += 8
	return v
}

func (b *ByteBuffer) WriteUint64(v uint64) {
	b.grow(8)
	binary.LittleEndian.PutUint64(b.data[b.writerIndex:], v)
	b.writerIndex += 8
}

func (b *ByteBuffer) ReadUint64() uint64 {
	b.ensureReadable(8)
	v := binary.LittleEndian.Uint64(b.data[b.readerIndex:])
	b.readerIndex += 8
	return v
}

func (b *ByteBuffer) WriteFloat32(v float32) {
	b.WriteUint32(math.Float32bits(v))
}

func (b *ByteBuffer) ReadFloat32() float32 {
	return math.Float32frombits(b.ReadUint32())
}

func (b *ByteBuffer) WriteFloat64(v float64) {
	b.WriteUint64(math.Float64bits(v))
}

func (b *ByteBuffer) ReadFloat64() float64 {
	return math.Float64frombits(b.ReadUint64())
}

// WriteBinary bulk-copies bytes onto the buffer. Go's copy() already lowers
// to the platform memmove; writeBytesBulk copies in 64-byte chunks and then
// copies the remaining tail in one step, with no separate 32- or 16-byte
// stages (see DESIGN.md).
func (b *ByteBuffer) WriteBinary(bytes []byte) int {
	b.grow(len(bytes))
	writeBytesBulk(b.data[b.writerIndex:], bytes)
	b.writerIndex += len(bytes)
	return len(bytes)
}

func (b *ByteBuffer) ReadBinary(length int) []byte {
	b.ensureReadable(length)
	out := make([]byte, length)
	readBytesBulk(out, b.data[b.readerIndex:b.readerIndex+length])
	b.readerIndex += length
	return out
}

func writeBytesBulk(dst, src []byte) {
	const chunk = 64
	i := 0
	for i+chunk <= len(src) {
		copy(dst[i:i+chunk], src[i:i+chunk])
		i += chunk
	}
	copy(dst[i:], src[i:])
}

func readBytesBulk(dst, src []byte) {
	writeBytesBulk(dst, src)
}

// --- variable length integers (spec §4.1, §6.1) ---
// Ported field-for-field from the Rust Writer::_write_varuint32/64 and
// Reader::read_varuint32/64 so the exact byte-group boundaries match
// (original_source/rust/fory-core/src/buffer.rs).

func (b *ByteBuffer) WriteVarUint32(v uint32) int {
	return b.writeVarUint32(v)
}

func (b *ByteBuffer) writeVarUint32(value uint32) int {
	switch {
	case value < 0x80:
		b.WriteByte_(byte(value))
		return 1
	case value < 0x4000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 7))
		return 2
	case value < 0x200000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 14))
		return 3
	case value < 0x10000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 21))
		return 4
	default:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 28))
		return 5
	}
}

func (b *ByteBuffer) ReadVarUint32() uint32 {
	b0 := uint32(b.ReadByte_())
	if b0 < 0x80 {
		return b0
	}
	result := b0 & 0x7F
	b1 := uint32(b.ReadByte_())
	result |= (b1 & 0x7F) << 7
	if b1 < 0x80 {
		return result
	}
	b2 := uint32(b.ReadByte_())
	result |= (b2 & 0x7F) << 14
	if b2 < 0x80 {
		return result
	}
	b3 := uint32(b.ReadByte_())
	result |= (b3 & 0x7F) << 21
	if b3 < 0x80 {
		return result
	}
	b4 := uint32(b.ReadByte_())
	result |= b4 << 28
	return result
}

// WriteVarInt32 zigzag-encodes v then writes it as a varuint32 (spec §4.1
// "canonical rule").
func (b *ByteBuffer) WriteVarInt32(v int32) int {
	zigzag := uint32((int64(v) << 1) ^ (int64(v) >> 31))
	return b.writeVarUint32(zigzag)
}

func (b *ByteBuffer) ReadVarInt32() int32 {
	encoded := b.ReadVarUint32()
	return int32(encoded>>1) ^ -int32(encoded&1)
}

func (b *ByteBuffer) WriteVarUint64(value uint64) int {
	switch {
	case value < 0x80:
		b.WriteByte_(byte(value))
		return 1
	case value < 0x4000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 7))
		return 2
	case value < 0x200000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 14))
		return 3
	case value < 0x10000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 21))
		return 4
	case value < 0x800000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 28))
		return 5
	case value < 0x40000000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>28)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 35))
		return 6
	case value < 0x2000000000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>28)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>35)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 42))
		return 7
	case value < 0x100000000000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>28)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>35)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>42)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 49))
		return 8
	default:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>28)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>35)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>42)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>49)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 56))
		return 9
	}
}

func (b *ByteBuffer) ReadVarUint64() uint64 {
	var result uint64
	var shift uint
	for i := 0; i < 9; i++ {
		bt := uint64(b.ReadByte_())
		if i == 8 {
			result |= (bt & 0xFF) << shift
			break
		}
		result |= (bt & 0x7F) << shift
		if bt < 0x80 {
			break
		}
		shift += 7
	}
	return result
}

func (b *ByteBuffer) WriteVarInt64(v int64) int {
	zigzag := uint64(v<<1) ^ uint64(v>>63)
	return b.WriteVarUint64(zigzag)
}

func (b *ByteBuffer) ReadVarInt64() int64 {
	encoded := b.ReadVarUint64()
	return int64(encoded>>1) ^ -int64(encoded&1)
}

// WriteVarUint36Small writes a restricted varuint for values < 2^36, used
// for the composite (length<<2)|encoding string header (spec §4.1, §6.1).
func (b *ByteBuffer) WriteVarUint36Small(value uint64) int {
	if value >= (1 << 36) {
		panic(newEncodeError("value too large for 36-bit varint"))
	}
	switch {
	case value < 0x80:
		b.WriteByte_(byte(value))
		return 1
	case value < 0x4000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 7))
		return 2
	case value < 0x200000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 14))
		return 3
	case value < 0x10000000:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 21))
		return 4
	default:
		b.WriteByte_(byte(value&0x7F) | 0x80)
		b.WriteByte_(byte((value>>7)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>14)&0x7F) | 0x80)
		b.WriteByte_(byte((value>>21)&0x7F) | 0x80)
		b.WriteByte_(byte(value >> 28))
		return 5
	}
}

func (b *ByteBuffer) ReadVarUint36Small() uint64 {
	var result uint64
	var shift uint
	for {
		bt := uint64(b.ReadByte_())
		if shift == 28 {
			// the fifth byte carries bits 28..35 whole, with no continuation bit
			result |= bt << 28
			break
		}
		result |= (bt & 0x7F) << shift
		if bt&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result
}
