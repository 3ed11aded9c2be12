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

	"github.com/poiesic/sitedex/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalCacheEntry serializes a URLCacheEntry to bytes.
func MarshalCacheEntry(entry *core.URLCacheEntry) []byte {
	buf := make([]byte, core.URLCacheEntryMUS.Size(*entry))
	core.URLCacheEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalCacheEntry deserializes a URLCacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (*core.URLCacheEntry, error) {
	entry, _, err := core.URLCacheEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalDocument serializes a VectorDocument to bytes.
func MarshalDocument(doc *core.VectorDocument) []byte {
	buf := make([]byte, core.VectorDocumentMUS.Size(*doc))
	core.VectorDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a VectorDocument from bytes.
func UnmarshalDocument(data []byte) (*core.VectorDocument, error) {
	doc, _, err := core.VectorDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}
