package core

import (
	"fmt"
	"strings"
	"time"
)

// UntitledDraft is the title given to drafts saved without one.
const UntitledDraft = "無題の下書き"

// Draft is a free-standing list of questions and answers that belongs to
// no company. Drafts are written before the user knows where an answer
// will be submitted.
type Draft struct {
	ID        ID
	Title     string
	Items     []QAItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	if d.Items != nil {
		out.Items = make([]QAItem, len(d.Items))
		for i, qa := range d.Items {
			out.Items[i] = qa.Clone()
		}
	}
	return out
}

// SanitizeDraft fills missing fields of d with safe defaults.
// Items whose question and answer are both blank are dropped.
func SanitizeDraft(d *Draft, now time.Time) {
	if strings.TrimSpace(d.Title) == "" {
		d.Title = UntitledDraft
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}

	kept := d.Items[:0]
	for _, qa := range d.Items {
		if strings.TrimSpace(qa.Question) == "" && strings.TrimSpace(qa.Answer) == "" {
			continue
		}
		kept = append(kept, qa)
	}
	d.Items = kept
	sanitizeQAs(d.Items)
}

// ValidateDraft validates a Draft.
//
// Validation rules:
//   - Title must not be blank
//   - every item must be valid and have a unique ID
func ValidateDraft(d *Draft) error {
	if d == nil {
		return fmt.Errorf("%w: draft is nil", ErrInvalidDraft)
	}

	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDraft, ErrEmptyTitle)
	}

	seen := make(map[string]struct{}, len(d.Items))
	for i := range d.Items {
		qa := &d.Items[i]
		if err := ValidateQAItem(qa); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrInvalidDraft, i, err)
		}
		if _, dup := seen[qa.ID]; dup {
			return fmt.Errorf("%w: %w: %s", ErrInvalidDraft, ErrDuplicateQAID, qa.ID)
		}
		seen[qa.ID] = struct{}{}
	}
	return nil
}
