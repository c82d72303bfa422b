package migrate

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/esmanager/core"
)

// State is the in-memory snapshot a Step works on.
type State struct {
	Entries  []*core.Entry
	Profiles map[string]*core.CompanyProfile
	Now      time.Time

	dirtyEntries  map[core.ID]struct{}
	dirtyProfiles map[string]struct{}
}

func newState(entries []*core.Entry, profiles []*core.CompanyProfile, now time.Time) *State {
	s := &State{
		Entries:       entries,
		Profiles:      make(map[string]*core.CompanyProfile, len(profiles)),
		Now:           now,
		dirtyEntries:  make(map[core.ID]struct{}),
		dirtyProfiles: make(map[string]struct{}),
	}
	for _, p := range profiles {
		s.Profiles[p.Company] = p
	}
	return s
}

// MarkEntry records that e must be written back.
func (s *State) MarkEntry(e *core.Entry) {
	s.dirtyEntries[e.ID] = struct{}{}
}

// Profile returns the profile for company, creating an empty one if needed.
// A created profile is marked dirty.
func (s *State) Profile(company string) *core.CompanyProfile {
	if p, ok := s.Profiles[company]; ok {
		return p
	}
	p := &core.CompanyProfile{Company: company, UpdatedAt: s.Now}
	s.Profiles[company] = p
	s.MarkProfile(p)
	return p
}

// MarkProfile records that p must be written back.
func (s *State) MarkProfile(p *core.CompanyProfile) {
	s.dirtyProfiles[p.Company] = struct{}{}
}

// Step is one versioned change to the stored data.
type Step struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, s *State) error
}

// DefaultSteps returns the migrations for the current data layout.
func DefaultSteps() []Step {
	return []Step{
		{Version: 1, Name: "legacy-company-fields", Apply: moveLegacyCompanyFields},
		{Version: 2, Name: "normalize-tags", Apply: normalizeTags},
		{Version: 3, Name: "sanitize-entries", Apply: sanitizeEntries},
	}
}

// Latest returns the highest version in steps.
func Latest(steps []Step) int {
	v := 0
	for _, s := range steps {
		v = max(v, s.Version)
	}
	return v
}

// moveLegacyCompanyFields moves industry and my-page URL from entries onto
// the company profile. A value already on the profile wins.
func moveLegacyCompanyFields(ctx context.Context, s *State) error {
	for _, e := range s.Entries {
		if e.LegacyIndustry == "" && e.LegacyMyPageURL == "" {
			continue
		}
		if company := strings.TrimSpace(e.Company); company != "" {
			p := s.Profile(company)
			if p.Industry == "" && e.LegacyIndustry != "" {
				p.Industry = e.LegacyIndustry
				s.MarkProfile(p)
			}
			if p.MyPageURL == "" && e.LegacyMyPageURL != "" {
				p.MyPageURL = e.LegacyMyPageURL
				s.MarkProfile(p)
			}
		}
		e.LegacyIndustry = ""
		e.LegacyMyPageURL = ""
		s.MarkEntry(e)
	}
	return nil
}

// normalizeTags splits tags that were stored as one delimited string.
func normalizeTags(ctx context.Context, s *State) error {
	for _, e := range s.Entries {
		changed := false
		for i := range e.QAs {
			tags := core.NormalizeTags(e.QAs[i].Tags)
			if !slices.Equal(tags, e.QAs[i].Tags) {
				e.QAs[i].Tags = tags
				changed = true
			}
		}
		if changed {
			s.MarkEntry(e)
		}
	}
	return nil
}

// sanitizeEntries fills defaults and QA ids.
func sanitizeEntries(ctx context.Context, s *State) error {
	for _, e := range s.Entries {
		before := e.Clone()
		core.Sanitize(e, s.Now)
		if !sameEntry(&before, e) {
			s.MarkEntry(e)
		}
	}
	return nil
}

func sameEntry(a, b *core.Entry) bool {
	if a.Company != b.Company || a.Status != b.Status ||
		!a.CreatedAt.Equal(b.CreatedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) ||
		len(a.QAs) != len(b.QAs) {
		return false
	}
	for i := range a.QAs {
		qa, qb := &a.QAs[i], &b.QAs[i]
		if qa.ID != qb.ID || qa.CharLimit != qb.CharLimit || !slices.Equal(qa.Tags, qb.Tags) {
			return false
		}
	}
	return true
}
