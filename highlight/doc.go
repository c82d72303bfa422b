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


// Package highlight splits display text into plain, search-match and
// lint-match segments.
//
// Lint checks are Japanese-specific. The disallowed-phrase check flags
// phrases that read as informal or presumptuous in an application
// (御社 in writing, なので, お伺い, ...). The register checks flag
// sentence-final forms that do not fit the register the writer chose:
// plain endings when writing in です/ます, polite endings when writing in
// だ/である. Register endings only count before 。, a newline or the end
// of the text.
//
// The patterns use lookbehind and lookahead, so they are compiled with
// github.com/dlclark/regexp2 rather than the standard library.
package highlight
