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


package esmanager

import "errors"

var (
	// ErrConfigRequired is returned by Open when no configuration is given.
	ErrConfigRequired = errors.New("config is required")

	// ErrProfileInUse is returned when deleting a profile that an entry
	// still references.
	ErrProfileInUse = errors.New("profile is referenced by an entry")

	// ErrCompanyExists is returned when renaming a company onto a name
	// that already has a profile.
	ErrCompanyExists = errors.New("company already has a profile")
)
