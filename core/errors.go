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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPage indicates a ScrapedPage failed validation.
	ErrInvalidPage = errors.New("invalid scraped page")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidStatus indicates an invalid FetchStatus value.
	ErrInvalidStatus = errors.New("invalid fetch status")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyChunk indicates a ContentChunk has no text.
	ErrEmptyChunk = errors.New("chunk text cannot be empty")

	// ErrChunkIndexOutOfRange indicates chunk Index/Total are inconsistent.
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrEmptyCategory indicates a chunk carries no category.
	ErrEmptyCategory = errors.New("category cannot be empty")

	// ErrEmptyEmbedding indicates a VectorDocument has no embedding.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")
)
