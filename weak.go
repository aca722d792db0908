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

// Weak[T] is a non-owning handle to a value also reachable through a
// strong (*T) reference elsewhere in the same object graph. Go has no
// built-in weak-pointer primitive, so this wraps the pointer directly;
// callers are responsible for not outliving the strong owner, same as
// the Rust Weak<T> this is modeled on.
//
// Forward weak references are not supported (spec §4.4, §9): a Weak
// whose target has not yet been written earlier in the same pass
// serializes as Null, same as a weak reference whose target was already
// dropped. original_source/rust/tests/tests/test_weak.rs documents this
// as the expected behavior rather than an error.
type Weak[T any] struct {
	target *T
}

// NewWeak wraps target. Passing nil produces a Weak that always
// serializes as Null.
func NewWeak[T any](target *T) Weak[T] {
	return Weak[T]{target: target}
}

// Upgrade returns the target and true if it's set, or (nil, false) if
// this Weak has no target (dropped, or never pointed anywhere).
func (w Weak[T]) Upgrade() (*T, bool) {
	if w.target == nil {
		return nil, false
	}
	return w.target, true
}

func (r *refResolver) writeWeak(buffer *ByteBuffer, target interface{}, isNil bool) {
	if isNil {
		buffer.WriteInt8(int8(RefFlagNull))
		return
	}
	ptr := refPointer(reflect.ValueOf(target))
	if id, ok := r.writtenIds[ptr]; ok {
		buffer.WriteInt8(int8(RefFlagRef))
		buffer.WriteVarInt32(id)
		return
	}
	// Forward weak reference: target hasn't been written yet in this
	// pass. spec §9 Open Question: emit as Null rather than erroring.
	buffer.WriteInt8(int8(RefFlagNull))
}
