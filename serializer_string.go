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
	"reflect"
	"unicode/utf16"
)

const (
	stringEncodingLatin1 = 0
	stringEncodingUTF16  = 1
	stringEncodingUTF8   = 2
)

// encodeString picks Latin1/UTF-8/UTF-16 for s per spec §4.7: Latin1 when
// every rune fits a byte, else UTF-8 when at least half of the first 64
// runes are ASCII, else UTF-16.
func encodeString(s string) (code int, payload []byte) {
	runes := []rune(s)

	allLatin1 := true
	for _, r := range runes {
		if r > 0xFF {
			allLatin1 = false
			break
		}
	}
	if allLatin1 {
		payload = make([]byte, len(runes))
		for i, r := range runes {
			payload[i] = byte(r)
		}
		return stringEncodingLatin1, payload
	}

	sampleLen := len(runes)
	if sampleLen > 64 {
		sampleLen = 64
	}
	ascii := 0
	for i := 0; i < sampleLen; i++ {
		if runes[i] <= 127 {
			ascii++
		}
	}
	if sampleLen == 0 || ascii*2 >= sampleLen {
		return stringEncodingUTF8, []byte(s)
	}

	u16 := utf16.Encode(runes)
	buf := make([]byte, len(u16)*2)
	for i, v := range u16 {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return stringEncodingUTF16, buf
}

func decodeString(code int, payload []byte) string {
	switch code {
	case stringEncodingLatin1:
		runes := make([]rune, len(payload))
		for i, b := range payload {
			runes[i] = rune(b)
		}
		return string(runes)
	case stringEncodingUTF16:
		n := len(payload) / 2
		u16 := make([]uint16, n)
		for i := 0; i < n; i++ {
			u16[i] = binary.LittleEndian.Uint16(payload[i*2:])
		}
		return string(utf16.Decode(u16))
	default:
		return string(payload)
	}
}

type stringSerializer struct{}

func (stringSerializer) TypeId() int16 { return STRING }

// Write deduplicates by string value, not just by pointer: a repeated
// large string (e.g. an interned constant copied into several struct
// fields) is written once and every later occurrence costs a one-byte
// dedup flag (WriteBool) plus a varint id (spec §4.7's string table).
func (stringSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	s := value.String()
	if f.stringWriteCache != nil {
		if id, ok := f.stringWriteCache[s]; ok {
			buffer.WriteBool(true)
			buffer.WriteVarUint32(uint32(id))
			return
		}
	}
	if f.stringWriteCache != nil {
		buffer.WriteBool(false)
		f.stringWriteCache[s] = int32(len(f.stringWriteCache))
	}
	code, payload := encodeString(s)
	f.limits.checkStringBytes(len(payload))
	header := (uint64(len(payload)) << 2) | uint64(code)
	buffer.WriteVarUint36Small(header)
	buffer.WriteBinary(payload)
}

func (stringSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	if f.stringReadCache != nil {
		if buffer.ReadBool() {
			id := int(buffer.ReadVarUint32())
			if id < 0 || id >= len(f.stringReadCache) {
				panic(newInvalidDataError("string reference id %d out of range (%d known strings)", id, len(f.stringReadCache)))
			}
			return reflect.ValueOf(f.stringReadCache[id])
		}
	}
	header := buffer.ReadVarUint36Small()
	code := int(header & 0b11)
	length := int(header >> 2)
	f.limits.checkStringBytes(length)
	payload := buffer.ReadBinary(length)
	s := decodeString(code, payload)
	if f.stringReadCache != nil {
		f.stringReadCache = append(f.stringReadCache, s)
	}
	return reflect.ValueOf(s)
}

type ptrToStringSerializer struct{}

func (ptrToStringSerializer) TypeId() int16 { return STRING }

func (ptrToStringSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	stringSerializer{}.Write(f, buffer, value.Elem())
}

func (ptrToStringSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	s := stringSerializer{}.Read(f, buffer, stringType).String()
	return reflect.ValueOf(&s)
}

type stringSliceSerializer struct{}

func (stringSliceSerializer) TypeId() int16 { return LIST }

func (stringSliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	f.limits.checkCollectionSize(n)
	buffer.WriteVarUint32(uint32(n))
	for i := 0; i < n; i++ {
		stringSerializer{}.Write(f, buffer, value.Index(i))
	}
}

func (stringSliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	out := reflect.MakeSlice(stringSliceType, n, n)
	for i := 0; i < n; i++ {
		out.Index(i).Set(stringSerializer{}.Read(f, buffer, stringType))
	}
	return out
}
