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

// Domain validation errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidQAItem indicates a QAItem failed validation.
	ErrInvalidQAItem = errors.New("invalid qa item")

	// ErrInvalidDraft indicates a Draft failed validation.
	ErrInvalidDraft = errors.New("invalid draft")

	// ErrEmptyTitle indicates a draft title is blank.
	ErrEmptyTitle = errors.New("draft title cannot be empty")

	// ErrInvalidProfile indicates a CompanyProfile failed validation.
	ErrInvalidProfile = errors.New("invalid company profile")

	// ErrEmptyCompany indicates the company name is blank.
	ErrEmptyCompany = errors.New("company name cannot be empty")

	// ErrDuplicateQAID indicates two QA items of one entry share an ID.
	ErrDuplicateQAID = errors.New("duplicate qa id")

	// ErrEmptyQAID indicates a QA item has no ID.
	ErrEmptyQAID = errors.New("qa id cannot be empty")

	// ErrInvalidCharLimit indicates a negative character limit.
	ErrInvalidCharLimit = errors.New("character limit cannot be negative")

	// ErrEmptyTag indicates a tag list contains a blank tag.
	ErrEmptyTag = errors.New("tag cannot be empty")

	// ErrUnknownStatus indicates a status outside CanonicalStatuses.
	ErrUnknownStatus = errors.New("unknown status")
)
