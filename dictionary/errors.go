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


package dictionary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/merkor/core"
)

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrItemDictionaryRequired is returned when an item dictionary is not provided.
	ErrItemDictionaryRequired = errors.New("item dictionary required")

	// ErrRelationTypesRequired is returned when a relation type table is not provided.
	ErrRelationTypesRequired = errors.New("relation types required")
)

// logStoreError logs a store failure at error level and returns it.
// Cancellations are returned without logging.
func logStoreError(logger *slog.Logger, msg string, id core.ID, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if id != 0 {
		logger.Error(msg, "id", id, "err", err)
	} else {
		logger.Error(msg, "err", err)
	}
	return err
}
