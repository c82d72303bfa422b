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


// Package lint checks every drafted answer of a set of entries at once.
//
// A Reporter renders each answer with highlight.Render on a worker pool
// and collects the lint-match segments as Findings. Answers longer than
// their QA item's character limit produce a CategoryOverLimit finding.
package lint
