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

import "io"

// defaultStreamCapacity is StreamBuf's initial backing capacity.
const defaultStreamCapacity = 4096

// StreamBuf adapts an io.Reader into the growable ByteBuffer Fory's
// Deserialize expects (spec §6.4): bytes are pulled from source on
// demand, appended to a buffer that only grows and is never compacted,
// so a *ByteBuffer cursor handed out mid-stream stays valid across
// later Fill calls. This mirrors the C++ ForyInputStreamBuf's
// fill_buffer/size/reader_index contract one-for-one.
type StreamBuf struct {
	source io.Reader
	buffer *ByteBuffer
}

// NewStreamBuf wraps source with the default initial capacity.
func NewStreamBuf(source io.Reader) *StreamBuf {
	return NewStreamBufSize(source, defaultStreamCapacity)
}

// NewStreamBufSize wraps source with an explicit initial capacity.
func NewStreamBufSize(source io.Reader, capacity int) *StreamBuf {
	if capacity < 1 {
		capacity = 1
	}
	return &StreamBuf{
		source: source,
		buffer: NewByteBuffer(make([]byte, 0, capacity)),
	}
}

// Buffer returns the backing ByteBuffer, read-ready for a call into
// Fory.Deserialize/readEnvelope: its reader index only ever advances as
// the caller consumes bytes, and Fill grows its writer index in place
// without disturbing that reader index.
func (s *StreamBuf) Buffer() *ByteBuffer { return s.buffer }

// Remaining reports how many unread bytes are currently buffered.
func (s *StreamBuf) Remaining() int {
	return s.buffer.WriterIndex() - s.buffer.ReaderIndex()
}

// Fill ensures at least minBytes are available to read beyond the
// buffer's current reader index, pulling from source in a loop until
// enough data has arrived. Returns io.ErrUnexpectedEOF if source is
// exhausted before minBytes bytes are available, matching the upstream
// adapter's "out of bound" behavior on premature EOF.
func (s *StreamBuf) Fill(minBytes int) error {
	if minBytes <= 0 {
		return nil
	}
	if s.Remaining() >= minBytes {
		return nil
	}

	need := minBytes - s.Remaining()
	s.buffer.grow(need)

	for s.Remaining() < minBytes {
		writable := s.buffer.data[s.buffer.writerIndex:]
		if len(writable) == 0 {
			s.buffer.grow(minBytes - s.Remaining())
			continue
		}
		n, err := s.source.Read(writable)
		if n > 0 {
			s.buffer.writerIndex += n
		}
		if err != nil {
			if err == io.EOF {
				if s.Remaining() < minBytes {
					return io.ErrUnexpectedEOF
				}
				return nil
			}
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}
