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

// Argument validation errors
var (
	// ErrInvalidArgument is the class of every argument validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyLemma indicates a lemma or pattern parameter is empty.
	ErrEmptyLemma = errors.New("must not be empty")

	// ErrInvalidWordclass indicates a wordclass outside noun, verb, adjective.
	ErrInvalidWordclass = errors.New("invalid wordclass")

	// ErrNonPositiveCount indicates a result count below 1.
	ErrNonPositiveCount = errors.New("must be positive")

	// ErrNilItem indicates a missing item parameter.
	ErrNilItem = errors.New("item must not be nil")

	// ErrNilRelationType indicates a missing relation type parameter.
	ErrNilRelationType = errors.New("relation type must not be nil")

	// ErrUnknownRelationType indicates a relation type name with no id.
	ErrUnknownRelationType = errors.New("unknown relation type")
)

// Relation type table errors
var (
	// ErrInvalidRelationTypes indicates a relation type table that cannot be used.
	ErrInvalidRelationTypes = errors.New("invalid relation type table")
)
