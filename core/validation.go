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

import (
	"fmt"
	"slices"
)

// ValidateNonEmpty checks a string parameter such as a lemma, a pattern or
// a domain name. The parameter name is included in the returned error.
func ValidateNonEmpty(value, param string) error {
	if value == "" {
		return fmt.Errorf("%w: param %q %w", ErrInvalidArgument, param, ErrEmptyLemma)
	}
	return nil
}

// ValidateWordclass checks that wc is one of the known wordclasses.
func ValidateWordclass(wc Wordclass) error {
	if !IsValidWordclass(wc) {
		return fmt.Errorf("%w: %w: %q must be one of %v", ErrInvalidArgument, ErrInvalidWordclass, string(wc), Wordclasses)
	}
	return nil
}

// IsValidWordclass reports whether wc is noun, verb or adjective.
func IsValidWordclass(wc Wordclass) bool {
	return slices.Contains(Wordclasses, wc)
}

// ValidateCount checks that a requested number of results is positive.
func ValidateCount(n int, param string) error {
	if n <= 0 {
		return fmt.Errorf("%w: param %q %w, got %d", ErrInvalidArgument, param, ErrNonPositiveCount, n)
	}
	return nil
}

// ValidateItem checks that an item parameter is present.
func ValidateItem(item *Item, param string) error {
	if item == nil {
		return fmt.Errorf("%w: param %q: %w", ErrInvalidArgument, param, ErrNilItem)
	}
	return nil
}

// ValidateRelationType checks that a relation type parameter is present.
func ValidateRelationType(t *RelationType) error {
	if t == nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrNilRelationType)
	}
	return nil
}
