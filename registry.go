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
	"fmt"
	"reflect"
)

// RegisterTagType registers a struct type under a cross-language tag
// (spec §4.2/§4.6): both the value type and its pointer type get a
// structSerializer/ptrToStructSerializer pair, matching the teacher's
// "structs travel by pointer" convention (spec §1(d)).
func (f *Fory) RegisterTagType(tag string, instance interface{}) error {
	return f.typeResolver.RegisterTypeTag(reflect.ValueOf(instance), tag)
}

// RegisterById registers instance's type under a numeric user id: id
// becomes the user portion of a composite wire type id, (id << 8) |
// the struct's internal marker (NAMED_STRUCT), so the writer and reader
// agree on the type without exchanging its namespace or name. The same
// id must be used on both peers; re-registering a different type under
// an id already in use is an error, and so is registering after the
// registry has been frozen by the first serialize/deserialize call
// (spec §3, §6.2).
func (f *Fory) RegisterById(id int32, instance interface{}) error {
	return f.typeResolver.RegisterById(id, reflect.ValueOf(instance))
}

// RegisterByName registers instance's type under a bare type name, with
// no namespace: the qualified name travels as an interned meta-string,
// not a numeric id (spec §6.2's register_by_name).
func (f *Fory) RegisterByName(typeName string, instance interface{}) error {
	return f.typeResolver.RegisterTypeTag(reflect.ValueOf(instance), typeName)
}

// RegisterByNamespace registers instance's type under an explicit
// namespace and type name (spec §6.2's register_by_namespace); the pair
// is joined the same way RegisterTypeTag already splits a dotted tag
// back apart in getTypeInfo, so a namespace containing "." round-trips.
func (f *Fory) RegisterByNamespace(namespace, typeName string, instance interface{}) error {
	qualified := typeName
	if namespace != "" {
		qualified = namespace + "." + typeName
	}
	return f.typeResolver.RegisterTypeTag(reflect.ValueOf(instance), qualified)
}

// RegisterEnum registers a named integer-kind type as an enum (spec
// §4.7/§6.3): ordNames maps each valid ordinal to the name it serializes
// as in local/named mode. named selects NAMED_ENUM (ordinal travels as
// an interned name, human-readable and resilient to ordinal reordering
// across versions) over plain ENUM (ordinal only, the cheaper xlang
// default).
func (f *Fory) RegisterEnum(instance interface{}, named bool, ordNames map[int32]string) error {
	return f.typeResolver.RegisterEnum(reflect.TypeOf(instance), named, ordNames)
}

// RegisterById is RegisterTypeTag's numeric-id sibling: it builds the
// same structSerializer/ptrToStructSerializer pair by delegating to
// RegisterTypeTag under a synthetic tag, then stamps the composite id
// onto both serializers so buildTypeMeta (serializer_struct.go) writes
// it into TypeMeta.TypeID instead of the bare NAMED_STRUCT marker.
func (r *typeResolver) RegisterById(id int32, value reflect.Value) error {
	if err := r.errIfFinalized(); err != nil {
		return err
	}
	composite := (id << 8) | int32(NAMED_STRUCT)
	tag := fmt.Sprintf("#%d", composite)
	if _, taken := r.typeInfoToType["@"+tag]; taken {
		return newNotAllowedError("id %d already registered", id)
	}
	if err := r.RegisterTypeTag(value, tag); err != nil {
		return err
	}
	type_ := value.Type()
	if s, ok := r.typeToSerializers[type_].(*structSerializer); ok {
		s.userTypeId = composite
	}
	if ptrSerializer, ok := r.typeToSerializers[reflect.PtrTo(type_)].(*ptrToStructSerializer); ok {
		ptrSerializer.userTypeId = composite
	}
	return nil
}

// RegisterEnum builds and registers an enumSerializer (serializer_enum.go)
// for type_, keyed under its own dynamic-dispatch tag the same way
// RegisterTypeTag keys a struct.
func (r *typeResolver) RegisterEnum(type_ reflect.Type, named bool, ordNames map[int32]string) error {
	if err := r.errIfFinalized(); err != nil {
		return err
	}
	switch type_.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return fmt.Errorf("enum type %s must have a signed integer underlying kind, got %s", type_, type_.Kind())
	}
	if prev, ok := r.typeToSerializers[type_]; ok {
		return fmt.Errorf("type %s already has a serializer %s registered", type_, prev)
	}
	nameByOrd := make(map[int32]string, len(ordNames))
	ordByName := make(map[string]int32, len(ordNames))
	for ord, name := range ordNames {
		nameByOrd[ord] = name
		ordByName[name] = ord
	}
	serializer := &enumSerializer{type_: type_, named: named, nameByOrd: nameByOrd, ordByName: ordByName}
	r.typeToSerializers[type_] = serializer
	tag := "enum:" + type_.String()
	r.typeToTypeInfo[type_] = "@" + tag
	r.typeInfoToType["@"+tag] = type_
	return nil
}
