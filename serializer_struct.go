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
	"sort"
)

// structField pairs an exported struct field with the serializer its
// declared type resolves to, cached once per structSerializer instead of
// being re-derived on every Write/Read.
type structField struct {
	index        int
	name         string
	type_        reflect.Type
	serializer   Serializer
	referencable bool
}

// structSerializer implements spec §4.6's struct contract: fields walked
// in a canonical order (type id, then name) so two peers that agree on field set
// agree on layout without exchanging a schema. RegisterTypeTag (type.go)
// is the only place one of these gets constructed.
type structSerializer struct {
	type_   reflect.Type
	typeTag string

	// userTypeId is the composite wire id RegisterById assigned this type
	// ((user id << 8) | NAMED_STRUCT's internal marker). Zero means the
	// type carries no numeric id and travels by namespace+name instead
	// (RegisterTagType/RegisterByName/RegisterByNamespace).
	userTypeId int32

	fieldsOnce bool
	fields     []structField
}

func (s *structSerializer) TypeId() int16 { return NAMED_STRUCT }

// orderedFields lazily resolves and caches, ordered by serializer type id
// and then by name (the order sortedFieldInfos gives the TypeMeta), every
// exported field's serializer. Lazy because RegisterTypeTag constructs the
// serializer before every field type is necessarily itself registered.
func (s *structSerializer) orderedFields(f *Fory) []structField {
	if s.fieldsOnce {
		return s.fields
	}
	type_ := s.type_
	fields := make([]structField, 0, type_.NumField())
	for i := 0; i < type_.NumField(); i++ {
		sf := type_.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		fieldSer, err := f.typeResolver.getSerializerByType(sf.Type, false)
		if err != nil {
			panic(newEncodeError("struct %s field %s: %s", type_.Name(), sf.Name, err))
		}
		fields = append(fields, structField{
			index:        i,
			name:         sf.Name,
			type_:        sf.Type,
			serializer:   fieldSer,
			referencable: nullable(sf.Type),
		})
	}
	sort.Slice(fields, func(a, b int) bool {
		ta, tb := fields[a].serializer.TypeId(), fields[b].serializer.TypeId()
		if ta != tb {
			return ta < tb
		}
		return fields[a].name < fields[b].name
	})
	s.fields = fields
	s.fieldsOnce = true
	return fields
}

// buildTypeMeta derives this struct's TypeMeta schema descriptor (spec
// §4.5) from its cached field list, for the compatible-mode write path.
func (s *structSerializer) buildTypeMeta(f *Fory, fields []structField) *TypeMeta {
	fis := make([]FieldInfo, len(fields))
	for i, field := range fields {
		ft := fieldTypeFor(field.serializer)
		ft.Nullable = field.referencable
		ft.RefTracked = field.referencable && f.referenceTracking
		fis[i] = FieldInfo{Name: field.name, Type: ft, Nullable: ft.Nullable, RefTracked: ft.RefTracked}
	}
	if s.userTypeId != 0 {
		return &TypeMeta{TypeID: s.userTypeId, RegisterByName: false, Fields: fis}
	}
	return &TypeMeta{TypeID: int32(NAMED_STRUCT), RegisterByName: true, Fields: fis}
}

func (s *structSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	fields := s.orderedFields(f)
	if f.mode == Compatible {
		writeTypeMeta(f, buffer, s.buildTypeMeta(f, fields))
	}
	for _, field := range fields {
		fv := value.Field(field.index)
		if field.referencable {
			if !f.refResolver.WriteRefOrNull(buffer, fv) {
				continue
			}
		}
		field.serializer.Write(f, buffer, fv)
	}
}

func (s *structSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	out := reflect.New(s.type_).Elem()
	if f.mode == Compatible {
		s.readCompatible(f, buffer, out)
		return out
	}
	for _, field := range s.orderedFields(f) {
		fv := out.Field(field.index)
		if field.referencable {
			flag := f.refResolver.ReadRefFlag(buffer)
			if flag == RefFlagNull {
				continue
			}
			if flag == RefFlagRef {
				fv.Set(f.refResolver.ReadRefId(buffer))
				continue
			}
		}
		fv.Set(field.serializer.Read(f, buffer, field.type_))
	}
	return out
}

// readCompatible consumes the inline TypeMeta the writer embedded (spec
// §4.5/§4.6) and reads back only the fields both peers still share,
// skipping any the local struct has dropped and leaving any the local
// struct has added at their zero value.
func (s *structSerializer) readCompatible(f *Fory, buffer *ByteBuffer, out reflect.Value) {
	writerMeta := readTypeMeta(f, buffer)
	localByName := make(map[string]structField, len(s.fields))
	for _, field := range s.orderedFields(f) {
		localByName[field.name] = field
	}
	for _, fi := range writerMeta.Fields {
		local, known := localByName[fi.Name]
		if !known {
			skipFieldValue(f, buffer, fi)
			continue
		}
		fv := out.Field(local.index)
		if local.referencable {
			flag := f.refResolver.ReadRefFlag(buffer)
			if flag == RefFlagNull {
				continue
			}
			if flag == RefFlagRef {
				fv.Set(f.refResolver.ReadRefId(buffer))
				continue
			}
		}
		fv.Set(local.serializer.Read(f, buffer, local.type_))
	}
}

// ptrToStructSerializer is the default serializer registered for *T: Fory
// peers exchange struct graphs by pointer, mirroring the original's
// Rc<RefCell<T>> graph (spec §1(d)).
type ptrToStructSerializer struct {
	structSerializer
	type_ reflect.Type
}

func (s *ptrToStructSerializer) TypeId() int16 { return NAMED_STRUCT }

func (s *ptrToStructSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	s.structSerializer.Write(f, buffer, value.Elem())
}

func (s *ptrToStructSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	ptr := reflect.New(s.structSerializer.type_)
	if f.referenceTracking {
		f.refResolver.Reference(ptr)
	}
	if f.mode == Compatible {
		s.structSerializer.readCompatible(f, buffer, ptr.Elem())
		return ptr
	}
	for _, field := range s.structSerializer.orderedFields(f) {
		fv := ptr.Elem().Field(field.index)
		if field.referencable {
			flag := f.refResolver.ReadRefFlag(buffer)
			if flag == RefFlagNull {
				continue
			}
			if flag == RefFlagRef {
				fv.Set(f.refResolver.ReadRefId(buffer))
				continue
			}
		}
		fv.Set(field.serializer.Read(f, buffer, field.type_))
	}
	return ptr
}
