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


// Package migrate brings stored data up to the current layout.
//
// Each Step has a version number and runs at most once per data set: the
// last applied version is kept in the storage.MetaRepository. A Migrator
// loads every entry and profile, applies the pending steps in version
// order to that snapshot, writes back only what changed and then records
// the new version. Steps are idempotent, so an interrupted run can simply
// be repeated.
package migrate
