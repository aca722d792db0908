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
	"github.com/fory-project/fory-go/meta"
	"github.com/spaolacci/murmur3"
)

// MetaStringBytes is an interned meta-string payload: the bit-packed bytes
// a meta.Encoder produced, its encoding tag, and a 64-bit hash used both
// as an equality short-circuit and as the key a peer's dynamic-string
// table interns it under (spec §4.3).
type MetaStringBytes struct {
	Data      []byte
	Encoding  meta.Encoding
	Hashcode  int64
	DynamicId int16
}

// MetaStringResolver interns MetaStringBytes values so a namespace or type
// name repeated across many TypeMeta/type-tag writes is only spelled out
// once per stream (spec §4.3), mirroring
// original_source/rust/fory-core/src/resolver/metastring_resolver.rs.
type MetaStringResolver struct {
	hashToBytes map[int64]*MetaStringBytes

	writtenHashToId map[int64]int16
	nextWriteId     int16

	readIdToBytes map[int16]*MetaStringBytes
	nextReadId    int16
}

func NewMetaStringResolver() *MetaStringResolver {
	return &MetaStringResolver{
		hashToBytes:     make(map[int64]*MetaStringBytes),
		writtenHashToId: make(map[int64]int16),
		readIdToBytes:   make(map[int16]*MetaStringBytes),
	}
}

func hashMetaStringBytes(data []byte) int64 {
	h := murmur3.Sum64(data)
	// clear the low byte: spec §4.3 reserves it so a hash collision and a
	// genuine 0-length string can never be confused with "no hash yet".
	return int64(h &^ 0xff)
}

// GetMetaStrBytes interns ms, computing its hash the first time this exact
// encoded payload is seen in the process.
func (r *MetaStringResolver) GetMetaStrBytes(ms *meta.MetaString) *MetaStringBytes {
	if ms == nil {
		return nil
	}
	h := hashMetaStringBytes(ms.Bytes)
	if existing, ok := r.hashToBytes[h]; ok {
		return existing
	}
	msb := &MetaStringBytes{
		Data:      ms.Bytes,
		Encoding:  ms.Encoding,
		Hashcode:  h,
		DynamicId: -1,
	}
	r.hashToBytes[h] = msb
	return msb
}

// WriteMetaStringBytes writes msb, interning it under a new dynamic id the
// first time it's written in this stream and writing only a back-reference
// to that id on subsequent occurrences (spec §4.3).
func (r *MetaStringResolver) WriteMetaStringBytes(buffer *ByteBuffer, msb *MetaStringBytes) error {
	if msb == nil {
		buffer.WriteVarInt32(1) // (0<<1)|1 : id field 0 is never a real id (ids travel as id+1), so it means nil.
		return nil
	}
	if id, ok := r.writtenHashToId[msb.Hashcode]; ok {
		buffer.WriteVarInt32(int32((id+1)<<1) | 1)
		return nil
	}
	id := r.nextWriteId
	r.nextWriteId++
	r.writtenHashToId[msb.Hashcode] = id

	buffer.WriteVarInt32(int32(len(msb.Data)) << 1)
	buffer.WriteByte_(uint8(msb.Encoding))
	buffer.WriteInt64(msb.Hashcode)
	buffer.WriteBinary(msb.Data)
	return nil
}

// ReadMetaStringBytes mirrors WriteMetaStringBytes.
func (r *MetaStringResolver) ReadMetaStringBytes(buffer *ByteBuffer) (*MetaStringBytes, error) {
	header := buffer.ReadVarInt32()
	if header&0b1 == 1 {
		id := int16(header>>1) - 1
		if id < 0 {
			return nil, nil
		}
		return r.readIdToBytes[id], nil
	}
	length := int(header >> 1)
	encoding := meta.Encoding(buffer.ReadByte_())
	hash := buffer.ReadInt64()
	data := buffer.ReadBinary(length)
	msb := &MetaStringBytes{Data: data, Encoding: encoding, Hashcode: hash, DynamicId: r.nextReadId}
	r.readIdToBytes[r.nextReadId] = msb
	r.nextReadId++
	return msb, nil
}

func (r *MetaStringResolver) resetWrite() {
	r.writtenHashToId = make(map[int64]int16)
	r.nextWriteId = 0
}

func (r *MetaStringResolver) resetRead() {
	r.readIdToBytes = make(map[int16]*MetaStringBytes)
	r.nextReadId = 0
}
