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
	"strings"
)

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - Company must not be blank
//   - every QA item must be valid
//   - QA ids must be unique within the entry
//
// NOT validated:
//   - Status (unknown values are tolerated, see ValidateStatus)
//   - ID (0 is valid before the entry is stored)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Company) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyCompany)
	}

	seen := make(map[string]struct{}, len(entry.QAs))
	for i := range entry.QAs {
		qa := &entry.QAs[i]
		if err := ValidateQAItem(qa); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrInvalidEntry, i, err)
		}
		if _, dup := seen[qa.ID]; dup {
			return fmt.Errorf("%w: %w: %s", ErrInvalidEntry, ErrDuplicateQAID, qa.ID)
		}
		seen[qa.ID] = struct{}{}
	}

	return nil
}

// ValidateQAItem validates a QAItem according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - CharLimit must not be negative
//   - no tag may be blank
//
// Question and Answer may both be empty while a draft is in progress.
func ValidateQAItem(qa *QAItem) error {
	if qa == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidQAItem)
	}

	if qa.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQAItem, ErrEmptyQAID)
	}

	if qa.CharLimit < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQAItem, ErrInvalidCharLimit)
	}

	for _, t := range qa.Tags {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidQAItem, ErrEmptyTag)
		}
	}

	return nil
}

// ValidateProfile validates a CompanyProfile.
func ValidateProfile(profile *CompanyProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	if strings.TrimSpace(profile.Company) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyCompany)
	}

	return nil
}

// ValidateStatus reports ErrUnknownStatus for values outside CanonicalStatuses.
// Unknown statuses are still stored; callers use this to warn.
func ValidateStatus(status Status) error {
	if !status.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(status))
	}
	return nil
}
