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

// enumSerializer implements spec §4.7's enum contract: a named
// integer-kind Go type, registered once with its full ordinal->name
// table (typeResolver.RegisterEnum). named selects between the two wire
// representations spec §6.3 describes: plain ENUM carries only the
// ordinal (cheapest, xlang default); NAMED_ENUM additionally interns the
// ordinal's name so a reader running a different version of the enum
// (reordered or extended) can still resolve the value by name instead of
// position.
type enumSerializer struct {
	type_     reflect.Type
	named     bool
	nameByOrd map[int32]string
	ordByName map[string]int32
}

func (s *enumSerializer) TypeId() int16 {
	if s.named {
		return NAMED_ENUM
	}
	return ENUM
}

func (s *enumSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	ord := int32(value.Int())
	name, ok := s.nameByOrd[ord]
	if !ok {
		panic(newUnknownEnumError(ord, s.type_.String()))
	}
	if !s.named {
		buffer.WriteVarInt32(ord)
		return
	}
	if err := f.typeResolver.writeMetaString(buffer, name); err != nil {
		panic(newEncodeError("writing enum %s name %q: %s", s.type_, name, err))
	}
}

func (s *enumSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	out := reflect.New(s.type_).Elem()
	if !s.named {
		ord := buffer.ReadVarInt32()
		if _, ok := s.nameByOrd[ord]; !ok {
			panic(newUnknownEnumError(ord, s.type_.String()))
		}
		out.SetInt(int64(ord))
		return out
	}
	name, err := f.typeResolver.readMetaString(buffer)
	if err != nil {
		panic(newInvalidDataError("reading enum %s name: %s", s.type_, err))
	}
	ord, ok := s.ordByName[name]
	if !ok {
		panic(newUnknownEnumError(-1, s.type_.String()))
	}
	out.SetInt(int64(ord))
	return out
}
