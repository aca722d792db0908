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
	"reflect"
	"unsafe"
)

// Serializer is the contract every value/ref/struct/enum codec implements.
// Write/Read never thread an error return on the hot path; callers run
// them under recoverAsError (fory.go) and a failure panics a *ForyError.
type Serializer interface {
	TypeId() int16
	Write(f *Fory, buffer *ByteBuffer, value reflect.Value)
	Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value
}

// nullable reports whether a value of this type can be nil and therefore
// needs a ref-flag byte ahead of its payload (spec §4.4).
func nullable(type_ reflect.Type) bool {
	switch type_.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// unsafeGetBytes borrows a string's backing array without copying, for the
// write-only path (spec §1(d) "never copy unless the use site requires").
func unsafeGetBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// isPrimitiveSliceOrArrayType reports whether type_ is an unnamed slice or
// array of a fixed-width primitive kind: these map onto the xlang PRIMITIVE
// _ARRAY family (spec §4.6) instead of the generic LIST encoding. A named
// type (e.g. Int16Slice) loses this fast path because, on the wire, a named
// Go type must round-trip through the registry like any other struct-ish
// registration.
func isPrimitiveSliceOrArrayType(type_ reflect.Type) bool {
	if type_.Name() != "" {
		return false
	}
	switch type_.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return false
	}
	switch type_.Elem().Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
