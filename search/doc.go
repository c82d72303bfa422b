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


// Package search filters, groups and orders entry-sheet data for display.
//
// Every function in this package is a pure computation over an in-memory
// slice of entries and a free-text query:
//   - Tokenize turns a query into lowercase tokens
//   - MatchAll and MatchAny test a case-folded text projection against tokens
//   - FilterAndGroupByCompany, FlattenAndFilterQAs, GroupByTag and
//     GroupByStatus derive the four entry views
//   - FilterDrafts searches drafts with a caller-chosen Strategy
//
// Inputs are never modified. Results are deep copies, so callers may
// change them freely and re-running a view on the same input yields the
// same output.
//
// Entry and QA views use AND semantics (StrategyAll). The company table
// filter accepts a company when any token hits any single field
// (StrategyAny). The two strategies are kept separate on purpose.
//
// Names are ordered with Japanese collation from golang.org/x/text;
// Compare exposes the same order to other packages.
package search
