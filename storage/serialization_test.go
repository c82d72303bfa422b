package storage

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/poiesic/esmanager/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	deadline := now.Add(72 * time.Hour)

	tests := []struct {
		name  string
		entry *core.Entry
	}{
		{
			name:  "minimal entry",
			entry: &core.Entry{ID: 1, Company: "Acme"},
		},
		{
			name: "full entry",
			entry: &core.Entry{
				ID:            18446744073709551615,
				Company:       "株式会社いろは",
				Status:        core.StatusDrafting,
				SelectionType: "本選考",
				Deadline:      &deadline,
				Note:          "一次面接は来週",
				CreatedAt:     now.Add(-time.Hour),
				UpdatedAt:     now,
				QAs: []core.QAItem{
					{ID: "a", Question: "志望動機", Answer: "御社の理念に共感しました。", CharLimit: 400, Tags: []string{"志望動機", "motivation"}},
					{ID: "b", Question: "自己PR", Note: "下書き"},
				},
			},
		},
		{
			name:  "legacy fields",
			entry: &core.Entry{ID: 7, Company: "Acme", LegacyIndustry: "IT", LegacyMyPageURL: "https://example.com"},
		},
		{
			name:  "deadline at zero time",
			entry: &core.Entry{ID: 8, Company: "Acme", Deadline: &time.Time{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.entry, decoded, cmpopts.EquateEmpty()))
		})
	}
}

func TestMarshalUnmarshalProfile(t *testing.T) {
	p := &core.CompanyProfile{
		Company:        "Acme",
		MyPageURL:      "https://mypage.example.com",
		RecruitmentURL: "https://jobs.example.com",
		Industry:       "メーカー",
		Location:       "東京都千代田区",
		WorkLocation:   "全国",
		HiringNumber:   "50名",
		AvgSalary:      "700万円",
		StartingSalary: "25万円",
		AnnualHoliday:  "125日",
		SelectionFlow:  []string{"ES", "Webテスト", "面接"},
		IDNumber:       "A-123",
		Note:           "OB訪問済",
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalProfile(MarshalProfile(p))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(p, decoded))
}

func TestMarshalUnmarshalDraft(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	drafts := []*core.Draft{
		{ID: 1, Title: "無題の下書き"},
		{
			ID:        42,
			Title:     "志望動機の素案",
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now,
			Items: []core.QAItem{
				{ID: "a", Question: "志望動機", Answer: "社会に貢献したい", CharLimit: 200, Tags: []string{"志望動機"}},
				{ID: "b", Question: "ガクチカ"},
			},
		},
	}

	for _, dr := range drafts {
		decoded, err := UnmarshalDraft(MarshalDraft(dr))
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(dr, decoded, cmpopts.EquateEmpty()))
	}

	data := MarshalDraft(drafts[1])
	_, err := UnmarshalDraft(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshal_Invalid(t *testing.T) {
	entry := MarshalEntry(&core.Entry{ID: 1, Company: "Acme", QAs: []core.QAItem{{ID: "a", Tags: []string{"x"}}}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", entry[:len(entry)-2]},
		{"unknown format", append([]byte{9}, entry[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}

	_, err := UnmarshalProfile(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalEntry(append([]byte{9}, entry[1:]...))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestMarshalUnmarshalVersion(t *testing.T) {
	for _, v := range []int{0, 1, 3, 1 << 20} {
		got, err := UnmarshalVersion(MarshalVersion(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := UnmarshalVersion(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
