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
	"reflect"
)

// BufferObject is a candidate for the zero-copy / out-of-band path (spec
// §6.1): a run of bytes the caller may choose to ship alongside the main
// buffer instead of inlined in it.
type BufferObject interface {
	TotalBytes() int
	WriteTo(buf *ByteBuffer)
	ToBuffer() *ByteBuffer
}

type bytesBufferObject struct {
	data []byte
}

func (o *bytesBufferObject) TotalBytes() int     { return len(o.data) }
func (o *bytesBufferObject) WriteTo(buf *ByteBuffer) { buf.WriteBinary(o.data) }
func (o *bytesBufferObject) ToBuffer() *ByteBuffer { return NewByteBuffer(o.data) }

type byteSliceSerializer struct{}

func (byteSliceSerializer) TypeId() int16 { return BINARY }

func (byteSliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	data := value.Bytes()
	f.limits.checkStringBytes(len(data))
	outOfBand := false
	if f.oobCallback != nil {
		outOfBand = !f.oobCallback(&bytesBufferObject{data: data})
	}
	buffer.WriteBool(outOfBand)
	if !outOfBand {
		buffer.WriteVarUint32(uint32(len(data)))
		buffer.WriteBinary(data)
	}
}

func (byteSliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	outOfBand := buffer.ReadBool()
	if outOfBand {
		return reflect.ValueOf(f.nextOutOfBandBuffer().Dump())
	}
	length := int(buffer.ReadVarUint32())
	f.limits.checkStringBytes(length)
	return reflect.ValueOf(buffer.ReadBinary(length))
}

// primitiveArrayCodec implements the homogeneous-element "typed array" fast
// path (spec §4.7): count, then a single (byte_count, raw little-endian
// bytes) payload instead of a per-element write. Each concrete slice
// serializer type below delegates here with its own element codec.
type primitiveArrayCodec struct {
	typeId     int16
	elemSize   int
	packElem   func(dst []byte, value reflect.Value)
	unpackElem func(src []byte) interface{}
	sliceType  reflect.Type
}

func (c primitiveArrayCodec) write(buffer *ByteBuffer, f *Fory, value reflect.Value) {
	n := value.Len()
	f.limits.checkCollectionSize(n)
	buffer.WriteVarUint32(uint32(n))
	block := make([]byte, n*c.elemSize)
	for i := 0; i < n; i++ {
		c.packElem(block[i*c.elemSize:], value.Index(i))
	}
	buffer.WriteVarUint32(uint32(len(block)))
	buffer.WriteBinary(block)
}

func (c primitiveArrayCodec) read(buffer *ByteBuffer, f *Fory) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	byteCount := int(buffer.ReadVarUint32())
	block := buffer.ReadBinary(byteCount)
	out := reflect.MakeSlice(c.sliceType, n, n)
	for i := 0; i < n; i++ {
		out.Index(i).Set(reflect.ValueOf(c.unpackElem(block[i*c.elemSize:])))
	}
	return out
}

var boolArrayCodec = primitiveArrayCodec{
	typeId: BOOL_ARRAY, elemSize: 1, sliceType: boolSliceType,
	packElem: func(dst []byte, v reflect.Value) {
		dst[0] = 0
		if v.Bool() {
			dst[0] = 1
		}
	},
	unpackElem: func(src []byte) interface{} { return src[0] != 0 },
}

type boolSliceSerializer struct{}

func (boolSliceSerializer) TypeId() int16 { return boolArrayCodec.typeId }
func (boolSliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	boolArrayCodec.write(buffer, f, value)
}
func (boolSliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return boolArrayCodec.read(buffer, f)
}

var int16ArrayCodec = primitiveArrayCodec{
	typeId: INT16_ARRAY, elemSize: 2, sliceType: int16SliceType,
	packElem:   func(dst []byte, v reflect.Value) { binary.LittleEndian.PutUint16(dst, uint16(v.Int())) },
	unpackElem: func(src []byte) interface{} { return int16(binary.LittleEndian.Uint16(src)) },
}

type int16SliceSerializer struct{}

func (int16SliceSerializer) TypeId() int16 { return int16ArrayCodec.typeId }
func (int16SliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	int16ArrayCodec.write(buffer, f, value)
}
func (int16SliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return int16ArrayCodec.read(buffer, f)
}

var int32ArrayCodec = primitiveArrayCodec{
	typeId: INT32_ARRAY, elemSize: 4, sliceType: int32SliceType,
	packElem:   func(dst []byte, v reflect.Value) { binary.LittleEndian.PutUint32(dst, uint32(v.Int())) },
	unpackElem: func(src []byte) interface{} { return int32(binary.LittleEndian.Uint32(src)) },
}

type int32SliceSerializer struct{}

func (int32SliceSerializer) TypeId() int16 { return int32ArrayCodec.typeId }
func (int32SliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	int32ArrayCodec.write(buffer, f, value)
}
func (int32SliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return int32ArrayCodec.read(buffer, f)
}

var int64ArrayCodec = primitiveArrayCodec{
	typeId: INT64_ARRAY, elemSize: 8, sliceType: int64SliceType,
	packElem:   func(dst []byte, v reflect.Value) { binary.LittleEndian.PutUint64(dst, uint64(v.Int())) },
	unpackElem: func(src []byte) interface{} { return int64(binary.LittleEndian.Uint64(src)) },
}

type int64SliceSerializer struct{}

func (int64SliceSerializer) TypeId() int16 { return int64ArrayCodec.typeId }
func (int64SliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	int64ArrayCodec.write(buffer, f, value)
}
func (int64SliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return int64ArrayCodec.read(buffer, f)
}

var float32ArrayCodec = primitiveArrayCodec{
	typeId: FLOAT32_ARRAY, elemSize: 4, sliceType: float32SliceType,
	packElem: func(dst []byte, v reflect.Value) {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v.Float())))
	},
	unpackElem: func(src []byte) interface{} { return math.Float32frombits(binary.LittleEndian.Uint32(src)) },
}

type float32SliceSerializer struct{}

func (float32SliceSerializer) TypeId() int16 { return float32ArrayCodec.typeId }
func (float32SliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	float32ArrayCodec.write(buffer, f, value)
}
func (float32SliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return float32ArrayCodec.read(buffer, f)
}

var float64ArrayCodec = primitiveArrayCodec{
	typeId: FLOAT64_ARRAY, elemSize: 8, sliceType: float64SliceType,
	packElem: func(dst []byte, v reflect.Value) {
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v.Float()))
	},
	unpackElem: func(src []byte) interface{} { return math.Float64frombits(binary.LittleEndian.Uint64(src)) },
}

type float64SliceSerializer struct{}

func (float64SliceSerializer) TypeId() int16 { return float64ArrayCodec.typeId }
func (float64SliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	float64ArrayCodec.write(buffer, f, value)
}
func (float64SliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return float64ArrayCodec.read(buffer, f)
}

// sliceSerializer handles []interface{}: every element is dynamically
// typed ("any", spec §4.7), so each gets its own ref flag and type tag.
type sliceSerializer struct{}

func (sliceSerializer) TypeId() int16 { return LIST }

func (sliceSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	f.limits.checkCollectionSize(n)
	buffer.WriteVarUint32(uint32(n))
	for i := 0; i < n; i++ {
		f.writeReferencableValue(buffer, value.Index(i), interfaceType)
	}
}

func (sliceSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	out := reflect.MakeSlice(interfaceSliceType, n, n)
	for i := 0; i < n; i++ {
		out.Index(i).Set(f.readReferencableValue(buffer, interfaceType))
	}
	return out
}

// sliceConcreteValueSerializer handles a named/concrete-element slice
// type whose element serializer is statically known (not "any").
type sliceConcreteValueSerializer struct {
	type_          reflect.Type
	elemSerializer Serializer
	referencable   bool
}

func (s *sliceConcreteValueSerializer) TypeId() int16 { return LIST }

func (s *sliceConcreteValueSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	f.limits.checkCollectionSize(n)
	buffer.WriteVarUint32(uint32(n))
	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if s.referencable {
			if !f.refResolver.WriteRefOrNull(buffer, elem) {
				continue
			}
		}
		s.elemSerializer.Write(f, buffer, elem)
	}
}

func (s *sliceConcreteValueSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	elemType := s.type_.Elem()
	out := reflect.MakeSlice(s.type_, n, n)
	for i := 0; i < n; i++ {
		if s.referencable {
			flag := f.refResolver.ReadRefFlag(buffer)
			if flag == RefFlagNull {
				continue
			}
			if flag == RefFlagRef {
				out.Index(i).Set(f.refResolver.ReadRefId(buffer))
				continue
			}
		}
		out.Index(i).Set(s.elemSerializer.Read(f, buffer, elemType))
	}
	return out
}

// arraySerializer/arrayConcreteValueSerializer mirror the slice
// serializers above for fixed-size Go arrays (spec §4.7's ARRAY family),
// which Go represents with compile-time-fixed length.
type arraySerializer struct{}

func (arraySerializer) TypeId() int16 { return ARRAY }

func (arraySerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	buffer.WriteVarUint32(uint32(n))
	for i := 0; i < n; i++ {
		f.writeReferencableValue(buffer, value.Index(i), interfaceType)
	}
}

func (arraySerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	out := reflect.New(reflect.ArrayOf(n, interfaceType)).Elem()
	for i := 0; i < n; i++ {
		out.Index(i).Set(f.readReferencableValue(buffer, interfaceType))
	}
	return out
}

type arrayConcreteValueSerializer struct {
	type_          reflect.Type
	elemSerializer Serializer
	referencable   bool
}

func (s *arrayConcreteValueSerializer) TypeId() int16 { return ARRAY }

func (s *arrayConcreteValueSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	buffer.WriteVarUint32(uint32(n))
	for i := 0; i < n; i++ {
		elem := value.Index(i)
		if s.referencable {
			if !f.refResolver.WriteRefOrNull(buffer, elem) {
				continue
			}
		}
		s.elemSerializer.Write(f, buffer, elem)
	}
}

func (s *arrayConcreteValueSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	out := reflect.New(reflect.ArrayOf(n, s.type_.Elem())).Elem()
	for i := 0; i < n; i++ {
		if s.referencable {
			flag := f.refResolver.ReadRefFlag(buffer)
			if flag == RefFlagNull {
				continue
			}
			if flag == RefFlagRef {
				out.Index(i).Set(f.refResolver.ReadRefId(buffer))
				continue
			}
		}
		out.Index(i).Set(s.elemSerializer.Read(f, buffer, s.type_.Elem()))
	}
	return out
}

// mapSerializer implements spec §4.7's map shape: (count, key elements
// flat, interleaved with values). key/value serializers are nil when the
// corresponding side is dynamically typed ("any").
type mapSerializer struct {
	type_             reflect.Type
	keySerializer     Serializer
	valueSerializer   Serializer
	keyReferencable   bool
	valueReferencable bool
	mapInStruct       bool
}

func (mapSerializer) TypeId() int16 { return MAP }

func (s mapSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	n := value.Len()
	f.limits.checkMapSize(n)
	buffer.WriteVarUint32(uint32(n))
	iter := value.MapRange()
	for iter.Next() {
		k, v := iter.Key(), iter.Value()
		if s.keySerializer != nil {
			if s.keyReferencable {
				if f.refResolver.WriteRefOrNull(buffer, k) {
					s.keySerializer.Write(f, buffer, k)
				}
			} else {
				s.keySerializer.Write(f, buffer, k)
			}
		} else {
			f.writeReferencableValue(buffer, k, interfaceType)
		}
		if s.valueSerializer != nil {
			if s.valueReferencable {
				if f.refResolver.WriteRefOrNull(buffer, v) {
					s.valueSerializer.Write(f, buffer, v)
				}
			} else {
				s.valueSerializer.Write(f, buffer, v)
			}
		} else {
			f.writeReferencableValue(buffer, v, interfaceType)
		}
	}
}

func (s mapSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkMapSize(n)
	mapType := s.type_
	if mapType == nil {
		mapType = interfaceMapType
	}
	out := reflect.MakeMapWithSize(mapType, n)
	keyType, valueType := mapType.Key(), mapType.Elem()
	for i := 0; i < n; i++ {
		var key reflect.Value
		if s.keySerializer != nil {
			if s.keyReferencable {
				flag := f.refResolver.ReadRefFlag(buffer)
				if flag == RefFlagRef {
					key = f.refResolver.ReadRefId(buffer)
				} else {
					key = s.keySerializer.Read(f, buffer, keyType)
				}
			} else {
				key = s.keySerializer.Read(f, buffer, keyType)
			}
		} else {
			key = f.readReferencableValue(buffer, interfaceType)
		}
		var val reflect.Value
		if s.valueSerializer != nil {
			if s.valueReferencable {
				flag := f.refResolver.ReadRefFlag(buffer)
				if flag == RefFlagNull {
					val = reflect.Zero(valueType)
				} else if flag == RefFlagRef {
					val = f.refResolver.ReadRefId(buffer)
				} else {
					val = s.valueSerializer.Read(f, buffer, valueType)
				}
			} else {
				val = s.valueSerializer.Read(f, buffer, valueType)
			}
		} else {
			val = f.readReferencableValue(buffer, interfaceType)
		}
		out.SetMapIndex(key, val)
	}
	return out
}

// setSerializer backs GenericSet: write like a slice of "any" elements,
// read back into a fresh GenericSet via Add (which already dedupes).
type setSerializer struct{}

func (setSerializer) TypeId() int16 { return SET }

func (setSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	set := value.Interface().(GenericSet)
	items := set.Values()
	f.limits.checkCollectionSize(len(items))
	buffer.WriteVarUint32(uint32(len(items)))
	for _, item := range items {
		f.writeReferencableValue(buffer, reflect.ValueOf(item), interfaceType)
	}
}

func (setSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	set := GenericSet{}
	for i := 0; i < n; i++ {
		v := f.readReferencableValue(buffer, interfaceType)
		set.Add(v.Interface())
	}
	return reflect.ValueOf(set)
}

// ptrToValueSerializer wraps a non-struct pointee's serializer; the
// pointer's own ref flag is handled by the caller before Write/Read runs.
type ptrToValueSerializer struct {
	valueSerializer Serializer
}

func (s *ptrToValueSerializer) TypeId() int16 { return s.valueSerializer.TypeId() }

func (s *ptrToValueSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	s.valueSerializer.Write(f, buffer, value.Elem())
}

func (s *ptrToValueSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	elem := s.valueSerializer.Read(f, buffer, type_.Elem())
	ptr := reflect.New(type_.Elem())
	ptr.Elem().Set(elem)
	return ptr
}
