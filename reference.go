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

// RefFlag tags every nullable/ref-trackable value on the wire (spec §4.4),
// grounded on original_source/rust/fory-core/src/types.rs's RefFlag enum.
type RefFlag int8

const (
	// RefFlagNull marks a nil pointer/interface/map/slice.
	RefFlagNull RefFlag = -3
	// RefFlagRef marks a back-reference: a varint ref id follows.
	RefFlagRef RefFlag = -2
	// RefFlagNotNullValue marks a non-nil value that is never tracked
	// (reference tracking disabled, or the type can't be shared/cyclic).
	RefFlagNotNullValue RefFlag = -1
	// RefFlagRefValue marks a non-nil value that is recorded under a new
	// ref id as it's written, so a later occurrence can reference it.
	RefFlagRefValue RefFlag = 0
)

// refResolver tracks pointer identity across a single Marshal/Unmarshal
// pass so shared and cyclic object graphs round-trip (spec §4.4). A Go
// *T plays the role of Rust's Rc<RefCell<T>>: two fields pointing at the
// same *T are the same object, identified here by reflect.Value.Pointer().
type refResolver struct {
	trackingEnabled bool

	// write side: pointer identity -> ref id already assigned.
	writtenIds map[uintptr]int32
	nextRefId  int32

	// read side: ref id -> the reflect.Value materialized for it. Entries
	// are added as soon as a RefValue-flagged value's backing object is
	// allocated (before its fields are populated), so a field that
	// refers back to its own ancestor resolves to the right instance
	// even though that ancestor isn't fully deserialized yet.
	readObjects []reflect.Value
}

func newRefResolver(trackingEnabled bool) *refResolver {
	return &refResolver{
		trackingEnabled: trackingEnabled,
		writtenIds:      make(map[uintptr]int32),
	}
}

func (r *refResolver) reset() {
	r.writtenIds = make(map[uintptr]int32)
	r.nextRefId = 0
	r.readObjects = r.readObjects[:0]
}

// refPointer extracts a stable identity for value, or 0 if the kind can't
// carry one (WriteRefOrNull always checks nullability before calling this).
func refPointer(value reflect.Value) uintptr {
	switch value.Kind() {
	case reflect.Ptr, reflect.Map:
		return value.Pointer()
	case reflect.Slice:
		if value.Len() == 0 && value.Cap() == 0 {
			return 0
		}
		return value.Pointer()
	case reflect.Interface:
		if value.IsNil() {
			return 0
		}
		return refPointer(value.Elem())
	default:
		return 0
	}
}

// WriteRefOrNull writes the flag byte for value and reports whether the
// caller still needs to write the value's payload: false means the flag
// alone (null, or a back-reference id) fully describes it.
func (r *refResolver) WriteRefOrNull(buffer *ByteBuffer, value reflect.Value) bool {
	if !value.IsValid() || isNilValue(value) {
		buffer.WriteInt8(int8(RefFlagNull))
		return false
	}
	if !r.trackingEnabled {
		buffer.WriteInt8(int8(RefFlagNotNullValue))
		return true
	}
	ptr := refPointer(value)
	if ptr == 0 {
		buffer.WriteInt8(int8(RefFlagNotNullValue))
		return true
	}
	if id, ok := r.writtenIds[ptr]; ok {
		buffer.WriteInt8(int8(RefFlagRef))
		buffer.WriteVarInt32(id)
		return false
	}
	id := r.nextRefId
	r.nextRefId++
	r.writtenIds[ptr] = id
	buffer.WriteInt8(int8(RefFlagRefValue))
	return true
}

func isNilValue(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return value.IsNil()
	default:
		return false
	}
}

// ReadRefFlag reads the flag byte written by WriteRefOrNull.
func (r *refResolver) ReadRefFlag(buffer *ByteBuffer) RefFlag {
	return RefFlag(buffer.ReadInt8())
}

// ReadRefId reads the varint ref id following a RefFlagRef byte and
// resolves it to the object recorded by Reference.
func (r *refResolver) ReadRefId(buffer *ByteBuffer) reflect.Value {
	id := buffer.ReadVarInt32()
	if int(id) < 0 || int(id) >= len(r.readObjects) {
		panic(newInvalidRefError("reference id %d out of range (%d known objects)", id, len(r.readObjects)))
	}
	return r.readObjects[id]
}

// Reference records value (typically a freshly allocated, not-yet-populated
// pointer) under the next read-side ref id, mirroring the id a RefFlagRefValue
// write claimed at the same position in the stream.
func (r *refResolver) Reference(value reflect.Value) int32 {
	id := int32(len(r.readObjects))
	r.readObjects = append(r.readObjects, value)
	return id
}
