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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/esmanager/core"
)

// recordFormat leads every encoded entry, draft and profile.
const recordFormat uint64 = 1

// sink receives the fields of a record in encoding order. sizer measures
// them and encoder writes them, so each layout is described once.
type sink interface {
	uint64(v uint64)
	int64(v int64)
	string(v string)
	bool(v bool)
}

type sizer struct{ n int }

func (s *sizer) uint64(v uint64) { s.n += varint.Uint64.Size(v) }
func (s *sizer) int64(v int64)   { s.n += varint.Int64.Size(v) }
func (s *sizer) string(v string) { s.n += ord.String.Size(v) }
func (s *sizer) bool(v bool)     { s.n += ord.Bool.Size(v) }

type encoder struct {
	buf []byte
	n   int
}

func (e *encoder) uint64(v uint64) { e.n += varint.Uint64.Marshal(v, e.buf[e.n:]) }
func (e *encoder) int64(v int64)   { e.n += varint.Int64.Marshal(v, e.buf[e.n:]) }
func (e *encoder) string(v string) { e.n += ord.String.Marshal(v, e.buf[e.n:]) }
func (e *encoder) bool(v bool)     { e.n += ord.Bool.Marshal(v, e.buf[e.n:]) }

// decoder reads fields back. After the first error every read returns
// the zero value and the error is kept in err.
type decoder struct {
	buf []byte
	n   int
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.buf[d.n:])
	d.n += n
	d.fail(err)
	return v
}

func (d *decoder) int64() int64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(d.buf[d.n:])
	d.n += n
	d.fail(err)
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.buf[d.n:])
	d.n += n
	d.fail(err)
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.buf[d.n:])
	d.n += n
	d.fail(err)
	return v
}

// count reads a slice length. Every element takes at least one byte, so
// a length beyond the remaining input is truncated data.
func (d *decoder) count() int {
	c := d.uint64()
	if d.err == nil && c > uint64(len(d.buf)-d.n) {
		d.fail(ErrTruncatedData)
		return 0
	}
	return int(c)
}

func (d *decoder) format() {
	if f := d.uint64(); d.err == nil && f != recordFormat {
		d.fail(fmt.Errorf("%w: %d", ErrUnsupportedFormat, f))
	}
}

func (d *decoder) result() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return nil
}

// Times are stored as Unix microseconds behind a presence flag.
func putTime(s sink, t time.Time) {
	s.bool(!t.IsZero())
	if !t.IsZero() {
		s.int64(t.UnixMicro())
	}
}

func (d *decoder) time() time.Time {
	if !d.bool() {
		return time.Time{}
	}
	return time.UnixMicro(d.int64()).UTC()
}

func putStrings(s sink, vs []string) {
	s.uint64(uint64(len(vs)))
	for _, v := range vs {
		s.string(v)
	}
}

func (d *decoder) strings() []string {
	c := d.count()
	if c == 0 {
		return nil
	}
	out := make([]string, 0, c)
	for range c {
		out = append(out, d.string())
	}
	return out
}

func putEntry(s sink, e *core.Entry) {
	s.uint64(recordFormat)
	s.uint64(uint64(e.ID))
	s.string(e.Company)
	s.string(string(e.Status))
	s.string(e.SelectionType)
	s.bool(e.Deadline != nil)
	if e.Deadline != nil {
		putTime(s, *e.Deadline)
	}
	s.string(e.Note)
	putTime(s, e.CreatedAt)
	putTime(s, e.UpdatedAt)
	s.string(e.LegacyIndustry)
	s.string(e.LegacyMyPageURL)

	putQAs(s, e.QAs)
}

func putQAs(s sink, qas []core.QAItem) {
	s.uint64(uint64(len(qas)))
	for i := range qas {
		qa := &qas[i]
		s.string(qa.ID)
		s.string(qa.Question)
		s.string(qa.Answer)
		s.int64(int64(qa.CharLimit))
		s.string(qa.Note)
		putStrings(s, qa.Tags)
	}
}

func (d *decoder) qas() []core.QAItem {
	c := d.count()
	if c == 0 {
		return nil
	}
	out := make([]core.QAItem, c)
	for i := range out {
		qa := &out[i]
		qa.ID = d.string()
		qa.Question = d.string()
		qa.Answer = d.string()
		qa.CharLimit = int(d.int64())
		qa.Note = d.string()
		qa.Tags = d.strings()
	}
	return out
}

func putDraft(s sink, dr *core.Draft) {
	s.uint64(recordFormat)
	s.uint64(uint64(dr.ID))
	s.string(dr.Title)
	putTime(s, dr.CreatedAt)
	putTime(s, dr.UpdatedAt)
	putQAs(s, dr.Items)
}

func putProfile(s sink, p *core.CompanyProfile) {
	s.uint64(recordFormat)
	s.string(p.Company)
	s.string(p.MyPageURL)
	s.string(p.RecruitmentURL)
	s.string(p.Industry)
	s.string(p.Location)
	s.string(p.WorkLocation)
	s.string(p.HiringNumber)
	s.string(p.AvgSalary)
	s.string(p.StartingSalary)
	s.string(p.AnnualHoliday)
	putStrings(s, p.SelectionFlow)
	s.string(p.IDNumber)
	s.string(p.Note)
	putTime(s, p.UpdatedAt)
}

// MarshalEntry serializes an Entry, including its QA items, to bytes.
func MarshalEntry(entry *core.Entry) []byte {
	var sz sizer
	putEntry(&sz, entry)
	enc := encoder{buf: make([]byte, sz.n)}
	putEntry(&enc, entry)
	return enc.buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	d := decoder{buf: data}
	d.format()

	e := &core.Entry{}
	e.ID = core.ID(d.uint64())
	e.Company = d.string()
	e.Status = core.Status(d.string())
	e.SelectionType = d.string()
	if d.bool() {
		deadline := d.time()
		e.Deadline = &deadline
	}
	e.Note = d.string()
	e.CreatedAt = d.time()
	e.UpdatedAt = d.time()
	e.LegacyIndustry = d.string()
	e.LegacyMyPageURL = d.string()

	e.QAs = d.qas()

	if err := d.result(); err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalProfile serializes a CompanyProfile to bytes.
func MarshalProfile(profile *core.CompanyProfile) []byte {
	var sz sizer
	putProfile(&sz, profile)
	enc := encoder{buf: make([]byte, sz.n)}
	putProfile(&enc, profile)
	return enc.buf
}

// UnmarshalProfile deserializes a CompanyProfile from bytes.
func UnmarshalProfile(data []byte) (*core.CompanyProfile, error) {
	d := decoder{buf: data}
	d.format()

	p := &core.CompanyProfile{}
	p.Company = d.string()
	p.MyPageURL = d.string()
	p.RecruitmentURL = d.string()
	p.Industry = d.string()
	p.Location = d.string()
	p.WorkLocation = d.string()
	p.HiringNumber = d.string()
	p.AvgSalary = d.string()
	p.StartingSalary = d.string()
	p.AnnualHoliday = d.string()
	p.SelectionFlow = d.strings()
	p.IDNumber = d.string()
	p.Note = d.string()
	p.UpdatedAt = d.time()

	if err := d.result(); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalDraft serializes a Draft, including its items, to bytes.
func MarshalDraft(draft *core.Draft) []byte {
	var sz sizer
	putDraft(&sz, draft)
	enc := encoder{buf: make([]byte, sz.n)}
	putDraft(&enc, draft)
	return enc.buf
}

// UnmarshalDraft deserializes a Draft from bytes.
func UnmarshalDraft(data []byte) (*core.Draft, error) {
	d := decoder{buf: data}
	d.format()

	dr := &core.Draft{}
	dr.ID = core.ID(d.uint64())
	dr.Title = d.string()
	dr.CreatedAt = d.time()
	dr.UpdatedAt = d.time()
	dr.Items = d.qas()

	if err := d.result(); err != nil {
		return nil, err
	}
	return dr, nil
}

// MarshalVersion serializes a schema version to bytes.
func MarshalVersion(version int) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(version)))
	varint.Uint64.Marshal(uint64(version), buf)
	return buf
}

// UnmarshalVersion deserializes a schema version from bytes.
func UnmarshalVersion(data []byte) (int, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return int(v), nil
}
