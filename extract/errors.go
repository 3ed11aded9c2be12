// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import "errors"

var (
	// ErrNoContent indicates the document produced no usable text
	// after cleaning.
	ErrNoContent = errors.New("no extractable content")

	// ErrMalformedDocument indicates the document could not be parsed
	// at all.
	ErrMalformedDocument = errors.New("malformed document")
)
