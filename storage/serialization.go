// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/wikipath/core"
)

// Record layouts (all fields in order, no framing):
//
//	Page:   id uvarint | title string | updated micros varint | link count varint | links...
//	Link:   target string | display string | section string
//	Vector: dim varint | float32 raw...

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalPage serializes a Page to bytes.
func MarshalPage(page *core.Page) []byte {
	updated := timeToMicros(page.UpdatedAt)

	size := varint.Uint64.Size(uint64(page.Id))
	size += ord.String.Size(page.Title)
	size += varint.Int64.Size(updated)
	size += varint.Int.Size(len(page.Links))
	for i := range page.Links {
		size += linkSize(&page.Links[i])
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(page.Id), buf)
	n += ord.String.Marshal(page.Title, buf[n:])
	n += varint.Int64.Marshal(updated, buf[n:])
	n += varint.Int.Marshal(len(page.Links), buf[n:])
	for i := range page.Links {
		n += marshalLink(&page.Links[i], buf[n:])
	}
	return buf
}

// UnmarshalPage deserializes a Page from bytes.
func UnmarshalPage(data []byte) (*core.Page, error) {
	var (
		page core.Page
		n    int
	)

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: page id: %w", ErrSerializationFailed, err)
	}
	page.Id = core.ID(id)
	n += m

	page.Title, m, err = ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: page title: %w", ErrSerializationFailed, err)
	}
	n += m

	updated, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: page timestamp: %w", ErrSerializationFailed, err)
	}
	page.UpdatedAt = microsToTime(updated)
	n += m

	count, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: link count: %w", ErrSerializationFailed, err)
	}
	n += m
	if count < 0 || count > len(data)-n {
		return nil, fmt.Errorf("%w: link count %d", ErrTruncatedData, count)
	}

	if count > 0 {
		page.Links = make([]core.Link, count)
	}
	for i := 0; i < count; i++ {
		m, err = unmarshalLink(data[n:], &page.Links[i])
		if err != nil {
			return nil, fmt.Errorf("%w: link %d: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}

	return &page, nil
}

// MarshalVector serializes an embedding to bytes.
func MarshalVector(vector []float32) []byte {
	size := varint.Int.Size(len(vector))
	for _, v := range vector {
		size += raw.Float32.Size(v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vector), buf)
	for _, v := range vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes an embedding from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	dim, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector dim: %w", ErrSerializationFailed, err)
	}
	if dim < 0 || dim*4 > len(data)-n {
		return nil, fmt.Errorf("%w: vector dim %d", ErrTruncatedData, dim)
	}
	vector := make([]float32, dim)
	for i := range vector {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector component %d: %w", ErrSerializationFailed, i, err)
		}
		vector[i] = v
		n += m
	}
	return vector, nil
}

func linkSize(l *core.Link) int {
	return ord.String.Size(l.Target) + ord.String.Size(l.DisplayText) + ord.String.Size(l.Section)
}

func marshalLink(l *core.Link, buf []byte) int {
	n := ord.String.Marshal(l.Target, buf)
	n += ord.String.Marshal(l.DisplayText, buf[n:])
	n += ord.String.Marshal(l.Section, buf[n:])
	return n
}

func unmarshalLink(data []byte, l *core.Link) (n int, err error) {
	var m int
	if l.Target, m, err = ord.String.Unmarshal(data); err != nil {
		return
	}
	n += m
	if l.DisplayText, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	if l.Section, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	return
}

// zero time is stored as 0 so it survives a round trip
func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
