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

import "math"

// Integer bounds used throughout the test suite and the varint codec.
const (
	MaxUint8  = math.MaxUint8
	MinInt8   = math.MinInt8
	MaxInt8   = math.MaxInt8
	MinInt16  = math.MinInt16
	MaxInt16  = math.MaxInt16
	MinInt32  = math.MinInt32
	MaxInt32  = math.MaxInt32
	MinInt64  = math.MinInt64
	MaxInt64  = math.MaxInt64
	MinInt    = math.MinInt
	MaxInt    = math.MaxInt
	MaxUint32 = math.MaxUint32
)

// MAGIC_NUMBER is the two leading bytes of every xlang envelope (spec §6.1).
// Written little-endian, so the wire bytes are 0xD4, 0x62.
const MAGIC_NUMBER int16 = 0x62D4

// Mode selects between schema-consistent and compatible serialization
// (spec §3, §6.5).
type Mode int8

const (
	// SchemaConsistent assumes writer and reader agree on struct layout;
	// no TypeMeta is exchanged.
	SchemaConsistent Mode = iota
	// Compatible exchanges a TypeMeta schema descriptor so peers with
	// different field sets for the same registered type can still
	// interoperate (spec §4.5, §4.6).
	Compatible
)

// Language tags the peer serialization runtime for the xlang envelope
// (spec §6.1) and also the registry's bookkeeping mode on typeResolver.
type Language int8

const (
	// XLANG marks a Fory instance operating in the cross-language wire
	// dialect (magic number, language tag, ordinal-only enums).
	XLANG Language = 0
	JAVA  Language = 1
	PYTHON Language = 2
	CPP   Language = 3
	GO    Language = 4
	JAVASCRIPT Language = 5
	RUST  Language = 6
)

// bitmap bits for the envelope (spec §6.1).
const (
	bitmapNull          uint8 = 1 << 0
	bitmapXLang         uint8 = 1 << 1
	bitmapOutOfBand     uint8 = 1 << 2
	bitmapLittleEndian  uint8 = 1 << 3
)

// SMALL_STRING_THRESHOLD governs the teacher's dynamic type-tag string
// interning (writeMetaString/readMetaString in type.go). The meta-string
// resolver (metastring_resolver.go) has no such split: it writes the
// encoding byte and the 8-byte hash for every payload regardless of length.
const SmallStringThreshold = SMALL_STRING_THRESHOLD
