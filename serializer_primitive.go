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

import "reflect"

type boolSerializer struct{}

func (boolSerializer) TypeId() int16 { return BOOL }
func (boolSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteBool(value.Bool())
}
func (boolSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadBool())
}

type byteSerializer struct{}

func (byteSerializer) TypeId() int16 { return INT8 }
func (byteSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteByte_(byte(value.Uint()))
}
func (byteSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadByte_())
}

type int8Serializer struct{}

func (int8Serializer) TypeId() int16 { return INT8 }
func (int8Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteInt8(int8(value.Int()))
}
func (int8Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadInt8())
}

type int16Serializer struct{}

func (int16Serializer) TypeId() int16 { return INT16 }
func (int16Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteInt16(int16(value.Int()))
}
func (int16Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadInt16())
}

type int32Serializer struct{}

func (int32Serializer) TypeId() int16 { return VAR_INT32 }
func (int32Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteVarInt32(int32(value.Int()))
}
func (int32Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadVarInt32())
}

type int64Serializer struct{}

func (int64Serializer) TypeId() int16 { return VAR_INT64 }
func (int64Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteVarInt64(value.Int())
}
func (int64Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadVarInt64())
}

// intSerializer handles Go's platform-width int, written on the wire as a
// fixed 64-bit quantity so a 32-bit and 64-bit peer agree on layout.
type intSerializer struct{}

func (intSerializer) TypeId() int16 { return INT64 }
func (intSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteInt64(value.Int())
}
func (intSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(int(buffer.ReadInt64()))
}

type float32Serializer struct{}

func (float32Serializer) TypeId() int16 { return FLOAT }
func (float32Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteFloat32(float32(value.Float()))
}
func (float32Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadFloat32())
}

type float64Serializer struct{}

func (float64Serializer) TypeId() int16 { return DOUBLE }
func (float64Serializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	buffer.WriteFloat64(value.Float())
}
func (float64Serializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	return reflect.ValueOf(buffer.ReadFloat64())
}
