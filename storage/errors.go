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

import "errors"

var (
	// ErrUnavailable indicates the store could not be reached or the
	// connection failed mid-command.
	ErrUnavailable = errors.New("store unavailable")

	// ErrCommand indicates the store rejected a command, for example a
	// type mismatch on a key.
	ErrCommand = errors.New("store command failed")

	// ErrMalformedKey indicates a key that does not follow the key scheme.
	ErrMalformedKey = errors.New("malformed key")

	// ErrMalformedRecord indicates a stored record with missing or
	// unparseable fields.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a stored value that could not be decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
