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

// Package fory implements the core of an xlang-compatible binary
// serialization codec: a growable little-endian buffer, a meta-string
// identifier codec, a runtime type registry, a TypeMeta schema descriptor
// for compatible-mode struct evolution, pointer-identity reference
// tracking for shared/cyclic graphs, and reflection-driven serializers
// for the primitive, container, and struct value families.
package fory

import (
	"reflect"
	"sync"
)

// Fory is the serialization context: the type registry, the in-flight
// reference tracker, and the guardrails a single Marshal/Unmarshal pass
// runs under. Safe for concurrent use once configured — every call
// resets its own write/read scratch state at entry, so two goroutines
// calling Marshal/Unmarshal concurrently are each free to mutate the
// shared *Fory's resolver caches only (which, post-registration, are
// read-only).
type Fory struct {
	mode                Mode
	xlang               bool
	compressString      bool
	limits              Limits
	requireRegistration bool
	language            Language
	referenceTracking   bool
	refResolver         *refResolver
	typeResolver        *typeResolver

	finalized bool

	oobCallback  func(BufferObject) bool
	oobBuffers   []*ByteBuffer
	oobReadIndex int

	stringWriteCache map[string]int32
	stringReadCache  []string

	dynDepth int

	mu sync.Mutex
}

// NewFory constructs a Fory instance for the xlang wire dialect (spec
// §6.1), matching the teacher's two-argument-free constructor: every
// other knob defaults and is overridden with an Option (config.go).
func NewFory(referenceTracking bool, opts ...Option) *Fory {
	f := &Fory{
		mode:              SchemaConsistent,
		xlang:             true,
		language:          XLANG,
		referenceTracking: referenceTracking,
		limits:            DefaultLimits(),
	}
	f.refResolver = newRefResolver(referenceTracking)
	f.typeResolver = newTypeResolver(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fory) resetWriteState() {
	f.refResolver.reset()
	f.typeResolver.resetWrite()
	f.stringWriteCache = make(map[string]int32)
	f.dynDepth = 0
}

func (f *Fory) resetReadState() {
	f.refResolver.reset()
	f.typeResolver.resetRead()
	f.stringReadCache = make([]string, 0, 8)
	f.dynDepth = 0
}

// writeEnvelope lays down the xlang header (spec §6.1): magic number,
// a bitmap of flags, and the language tag.
func (f *Fory) writeEnvelope(buffer *ByteBuffer) {
	buffer.WriteInt16(MAGIC_NUMBER)
	bitmap := bitmapLittleEndian
	if f.xlang {
		bitmap |= bitmapXLang
	}
	buffer.WriteByte_(bitmap)
	buffer.WriteByte_(byte(f.language))
}

func (f *Fory) readEnvelope(buffer *ByteBuffer) error {
	magic := buffer.ReadInt16()
	if magic != MAGIC_NUMBER {
		return newInvalidDataError("bad magic number 0x%x, expected 0x%x", uint16(magic), uint16(MAGIC_NUMBER))
	}
	if bitmap := buffer.ReadByte_(); bitmap&bitmapLittleEndian == 0 {
		return newInvalidDataError("envelope little-endian bit is not set: big-endian peers are not supported")
	}
	buffer.ReadByte_() // language tag: peer identity, not consulted on read
	return nil
}

// Marshal serializes value into a fresh byte slice, envelope included.
// value is always treated as a dynamically typed position (spec §4.4):
// the concrete type actually stored in the interface{} travels on the
// wire so Unmarshal can reconstruct it without the caller restating it.
func (f *Fory) Marshal(value interface{}) (bytes []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverAsError(&err)
	f.finalized = true

	buffer := NewByteBuffer(nil)
	f.writeEnvelope(buffer)
	f.resetWriteState()
	f.writeReferencableValue(buffer, reflect.ValueOf(value), interfaceType)
	return buffer.Dump(), nil
}

// Unmarshal deserializes bytes (as produced by Marshal) into out, which
// must be a non-nil pointer. The wire's own type tag drives
// materialization; out's pointee type only needs to be assignable from
// whatever concrete type comes back (spec §4.4).
func (f *Fory) Unmarshal(bytes []byte, out interface{}) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverAsError(&err)
	f.finalized = true

	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return newNotAllowedError("Unmarshal requires a non-nil pointer, got %T", out)
	}
	buffer := NewByteBuffer(bytes)
	if err := f.readEnvelope(buffer); err != nil {
		return err
	}
	f.resetReadState()
	value := f.readReferencableValue(buffer, interfaceType)
	outVal.Elem().Set(value)
	return nil
}

// Serialize writes value's raw payload (no envelope) into buffer. When
// callback is non-nil it is offered every []byte value encountered
// (spec §6.2's zero-copy path): returning false accepts the offer and
// the bytes travel out-of-band instead of inline; returning true (or a
// nil callback) keeps them inline.
func (f *Fory) Serialize(buffer *ByteBuffer, value interface{}, callback func(BufferObject) bool) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverAsError(&err)
	f.finalized = true

	f.resetWriteState()
	f.oobCallback = callback
	defer func() { f.oobCallback = nil }()
	f.writeReferencableValue(buffer, reflect.ValueOf(value), interfaceType)
	return nil
}

// Deserialize reads back a value Serialize wrote, given the out-of-band
// buffers (if any) in the same order the write-side callback accepted
// them.
func (f *Fory) Deserialize(buffer *ByteBuffer, out interface{}, buffers []*ByteBuffer) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer recoverAsError(&err)
	f.finalized = true

	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return newNotAllowedError("Deserialize requires a non-nil pointer, got %T", out)
	}
	f.resetReadState()
	f.oobBuffers = buffers
	f.oobReadIndex = 0
	defer func() { f.oobBuffers = nil; f.oobReadIndex = 0 }()
	value := f.readReferencableValue(buffer, interfaceType)
	outVal.Elem().Set(value)
	return nil
}

func (f *Fory) nextOutOfBandBuffer() *ByteBuffer {
	if f.oobReadIndex >= len(f.oobBuffers) {
		panic(newInvalidDataError("out-of-band buffer requested but none remain (index %d)", f.oobReadIndex))
	}
	buf := f.oobBuffers[f.oobReadIndex]
	f.oobReadIndex++
	return buf
}

// writeReferencableValue writes a dynamically typed ("any") position:
// a ref-or-null flag, then — for a fresh non-null value — the concrete
// Go type tag followed by that type's own serializer payload (spec
// §4.4, §4.6). value may already be unwrapped (as reflect.ValueOf on an
// interface{} parameter does) or still be an interface-kind Value (as
// a slice-of-interface{} element is); both are normalized here.
func (f *Fory) writeReferencableValue(buffer *ByteBuffer, value reflect.Value, declaredType reflect.Type) {
	f.dynDepth++
	defer func() { f.dynDepth-- }()
	if f.dynDepth > f.limits.MaxDynDepth {
		panic(newDepthExceededError(f.limits.MaxDynDepth))
	}
	if value.Kind() == reflect.Interface {
		if !value.IsValid() || value.IsNil() {
			buffer.WriteInt8(int8(RefFlagNull))
			return
		}
		value = value.Elem()
	}
	if !value.IsValid() {
		buffer.WriteInt8(int8(RefFlagNull))
		return
	}
	if !f.refResolver.WriteRefOrNull(buffer, value) {
		return
	}
	concreteType := value.Type()
	if err := f.typeResolver.writeType(buffer, concreteType); err != nil {
		panic(newEncodeError("writing type %s: %s", concreteType, err))
	}
	serializer, err := f.typeResolver.getSerializerByType(concreteType, false)
	if err != nil {
		panic(newEncodeError("resolving serializer for %s: %s", concreteType, err))
	}
	serializer.Write(f, buffer, value)
}

// readReferencableValue is writeReferencableValue's inverse: it always
// returns a concrete-typed reflect.Value (never one of Kind Interface),
// which is assignable both into a concrete-typed slot and into an
// interface{} slot.
func (f *Fory) readReferencableValue(buffer *ByteBuffer, declaredType reflect.Type) reflect.Value {
	f.dynDepth++
	defer func() { f.dynDepth-- }()
	if f.dynDepth > f.limits.MaxDynDepth {
		panic(newDepthExceededError(f.limits.MaxDynDepth))
	}
	flag := f.refResolver.ReadRefFlag(buffer)
	switch flag {
	case RefFlagNull:
		return reflect.Zero(declaredType)
	case RefFlagRef:
		return f.refResolver.ReadRefId(buffer)
	}
	concreteType, err := f.typeResolver.readType(buffer)
	if err != nil {
		panic(newInvalidDataError("reading type tag: %s", err))
	}
	trackRef := flag == RefFlagRefValue && f.referenceTracking

	// []interface{} and map[interface{}]interface{} are Go reference types:
	// the backing array/map header stays stable once allocated, so — unlike
	// the general case below — these can register their own ref id right
	// after allocating and before filling, letting an element that points
	// back to its own containing slice/map (a cycle through a dynamically
	// typed position) resolve correctly mid-read.
	if trackRef {
		switch concreteType {
		case interfaceSliceType:
			return f.readTrackedInterfaceSlice(buffer)
		case interfaceMapType:
			return f.readTrackedInterfaceMap(buffer)
		}
	}

	serializer, err := f.typeResolver.getSerializerByType(concreteType, false)
	if err != nil {
		panic(newInvalidDataError("resolving serializer for %s: %s", concreteType, err))
	}
	var refId int32 = -1
	if _, selfRegisters := serializer.(*ptrToStructSerializer); trackRef && !selfRegisters {
		// Reserve the id now so a field further down this value's own
		// graph that points back to it (a cycle) resolves correctly;
		// placeholder is overwritten right after serializer.Read allocates
		// the real backing object. Struct pointers are skipped here:
		// ptrToStructSerializer.Read registers the allocated pointer itself.
		refId = f.refResolver.Reference(reflect.Value{})
	}
	result := serializer.Read(f, buffer, concreteType)
	if refId >= 0 {
		f.refResolver.readObjects[refId] = result
	}
	return result
}

func (f *Fory) readTrackedInterfaceSlice(buffer *ByteBuffer) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkCollectionSize(n)
	out := reflect.MakeSlice(interfaceSliceType, n, n)
	f.refResolver.Reference(out)
	for i := 0; i < n; i++ {
		out.Index(i).Set(f.readReferencableValue(buffer, interfaceType))
	}
	return out
}

func (f *Fory) readTrackedInterfaceMap(buffer *ByteBuffer) reflect.Value {
	n := int(buffer.ReadVarUint32())
	f.limits.checkMapSize(n)
	out := reflect.MakeMapWithSize(interfaceMapType, n)
	f.refResolver.Reference(out)
	for i := 0; i < n; i++ {
		key := f.readReferencableValue(buffer, interfaceType)
		val := f.readReferencableValue(buffer, interfaceType)
		out.SetMapIndex(key, val)
	}
	return out
}

// defaultFory backs the package-level Marshal/Unmarshal convenience
// functions (spec §6.5's "a zero-config entry point").
var defaultFory = NewFory(true)

// Marshal serializes value using a shared default Fory configured for
// reference tracking.
func Marshal(value interface{}) ([]byte, error) {
	return defaultFory.Marshal(value)
}

// Unmarshal deserializes bytes (as produced by Marshal) into out using
// the shared default Fory.
func Unmarshal(bytes []byte, out interface{}) error {
	return defaultFory.Unmarshal(bytes, out)
}
