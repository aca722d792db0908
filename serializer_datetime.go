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
	"time"
)

const epochDay = 24 * time.Hour

type dateSerializer struct{}

func (dateSerializer) TypeId() int16 { return LOCAL_DATE }

func (dateSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	d := value.Interface().(Date)
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	days := int32(t.Unix() / int64(epochDay/time.Second))
	buffer.WriteInt32(days)
}

func (dateSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	days := buffer.ReadInt32()
	t := time.Unix(int64(days)*int64(epochDay/time.Second), 0).UTC()
	d := Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
	return reflect.ValueOf(d)
}

type timeSerializer struct{}

func (timeSerializer) TypeId() int16 { return TIMESTAMP }

func (timeSerializer) Write(f *Fory, buffer *ByteBuffer, value reflect.Value) {
	t := value.Interface().(time.Time)
	buffer.WriteInt64(t.UnixMicro())
}

func (timeSerializer) Read(f *Fory, buffer *ByteBuffer, type_ reflect.Type) reflect.Value {
	micros := buffer.ReadInt64()
	t := time.UnixMicro(micros)
	return reflect.ValueOf(t)
}
