package core

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// Entries get theirs from a database sequence; profiles derive theirs from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Status is the submission state of an Entry.
// Values outside the known set are tolerated everywhere.
type Status string

const (
	StatusNotSubmitted Status = "未提出"
	StatusDrafting     Status = "作成中"
	StatusSubmitted    Status = "提出済"
	StatusHired        Status = "採用"
	StatusRejected     Status = "不採用"

	// StatusUnset is the grouping key used for an Entry without a status.
	StatusUnset Status = "未設定"
)

// CanonicalStatuses lists the known statuses in display order.
var CanonicalStatuses = []Status{
	StatusNotSubmitted,
	StatusDrafting,
	StatusSubmitted,
	StatusHired,
	StatusRejected,
}

// IsKnown reports whether s is one of CanonicalStatuses.
func (s Status) IsKnown() bool {
	return slices.Contains(CanonicalStatuses, s)
}

// DefaultCompany is the company name given to entries saved without one.
const DefaultCompany = "名称未設定"

// Entry is one application to one company.
type Entry struct {
	ID            ID
	Company       string
	Status        Status
	SelectionType string     // Free-form, e.g. "本選考" or "夏インターン"
	Deadline      *time.Time // Optional
	Note          string
	QAs           []QAItem
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Fields from older data layouts. They are moved onto the company's
	// profile by the load-time migration and are empty afterwards.
	LegacyIndustry  string
	LegacyMyPageURL string
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	if e.Deadline != nil {
		d := *e.Deadline
		out.Deadline = &d
	}
	if e.QAs != nil {
		out.QAs = make([]QAItem, len(e.QAs))
		for i, qa := range e.QAs {
			out.QAs[i] = qa.Clone()
		}
	}
	return out
}

// CompanyOrDefault returns the company name, or DefaultCompany if it is blank.
func (e *Entry) CompanyOrDefault() string {
	if strings.TrimSpace(e.Company) == "" {
		return DefaultCompany
	}
	return e.Company
}

// QAItem is a single question and its drafted answer.
type QAItem struct {
	ID        string // Unique within the owning entry
	Question  string
	Answer    string
	CharLimit int // 0 means no limit
	Note      string
	Tags      []string
}

// NewQAID returns a fresh synthetic QA identity.
func NewQAID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the item.
func (q QAItem) Clone() QAItem {
	out := q
	out.Tags = slices.Clone(q.Tags)
	return out
}

// CharCount returns the answer length in characters.
func (q *QAItem) CharCount() int {
	return utf8.RuneCountInString(q.Answer)
}

// OverLimit reports whether the answer exceeds its character limit.
func (q *QAItem) OverLimit() bool {
	return q.CharLimit > 0 && q.CharCount() > q.CharLimit
}

// CompanyProfile holds per-company attributes shared by every Entry for that company.
// Company is the join key.
type CompanyProfile struct {
	Company        string
	MyPageURL      string
	RecruitmentURL string
	Industry       string
	Location       string
	WorkLocation   string
	HiringNumber   string
	AvgSalary      string
	StartingSalary string
	AnnualHoliday  string
	SelectionFlow  []string
	IDNumber       string // Login id for the company's applicant page
	Note           string
	UpdatedAt      time.Time
}

// ProfileID derives the storage identity of the profile for company.
func ProfileID(company string) ID {
	return IDFromContent(company)
}

// Clone returns a deep copy of the profile.
func (p CompanyProfile) Clone() CompanyProfile {
	out := p
	out.SelectionFlow = slices.Clone(p.SelectionFlow)
	return out
}

// IsEmpty reports whether no attribute besides the key is set.
func (p *CompanyProfile) IsEmpty() bool {
	return p.MyPageURL == "" && p.RecruitmentURL == "" && p.Industry == "" &&
		p.Location == "" && p.WorkLocation == "" && p.HiringNumber == "" &&
		p.AvgSalary == "" && p.StartingSalary == "" && p.AnnualHoliday == "" &&
		len(p.SelectionFlow) == 0 && p.IDNumber == "" && p.Note == ""
}

func isTagSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '，' || r == '、'
}

// SplitTags splits a delimited tag string on whitespace (including the
// full-width space) and the ASCII, full-width and ideographic commas.
// Empty pieces are dropped; case and order are preserved.
func SplitTags(s string) []string {
	return strings.FieldsFunc(s, isTagSeparator)
}

// NormalizeTags splits every element with SplitTags and flattens the
// result. The returned slice is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, SplitTags(t)...)
	}
	return out
}

// Sanitize fills missing fields of e with safe defaults.
//
//   - blank Company becomes DefaultCompany
//   - blank Status becomes StatusNotSubmitted
//   - zero CreatedAt and UpdatedAt become now
//   - QA items without an ID (or with a duplicate one) get a fresh one
//   - tags are normalized and negative char limits cleared
func Sanitize(e *Entry, now time.Time) {
	if strings.TrimSpace(e.Company) == "" {
		e.Company = DefaultCompany
	}
	if strings.TrimSpace(string(e.Status)) == "" {
		e.Status = StatusNotSubmitted
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	sanitizeQAs(e.QAs)
}

func sanitizeQAs(qas []QAItem) {
	seen := make(map[string]struct{}, len(qas))
	for i := range qas {
		qa := &qas[i]
		if _, dup := seen[qa.ID]; qa.ID == "" || dup {
			qa.ID = NewQAID()
		}
		seen[qa.ID] = struct{}{}
		qa.Tags = NormalizeTags(qa.Tags)
		if qa.CharLimit < 0 {
			qa.CharLimit = 0
		}
	}
}
