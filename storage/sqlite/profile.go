package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/poiesic/esmanager/core"
	"github.com/poiesic/esmanager/storage"
)

// ProfileRepository implements storage.ProfileRepository on SQLite.
type ProfileRepository struct {
	db *DB
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Close is a no-op; the DB owns the connection.
func (r *ProfileRepository) Close() error { return nil }

// PutProfiles inserts or replaces profiles.
func (r *ProfileRepository) PutProfiles(ctx context.Context, profiles ...*core.CompanyProfile) error {
	for _, p := range profiles {
		if err := core.ValidateProfile(p); err != nil {
			return err
		}
	}

	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range profiles {
		flow := p.SelectionFlow
		if flow == nil {
			flow = []string{}
		}
		flowJSON, err := json.Marshal(flow)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles (company, mypage_url, recruitment_url, industry, location, work_location,
  hiring_number, avg_salary, starting_salary, annual_holiday, selection_flow, id_number, note, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(company) DO UPDATE SET
  mypage_url = excluded.mypage_url,
  recruitment_url = excluded.recruitment_url,
  industry = excluded.industry,
  location = excluded.location,
  work_location = excluded.work_location,
  hiring_number = excluded.hiring_number,
  avg_salary = excluded.avg_salary,
  starting_salary = excluded.starting_salary,
  annual_holiday = excluded.annual_holiday,
  selection_flow = excluded.selection_flow,
  id_number = excluded.id_number,
  note = excluded.note,
  updated_at = excluded.updated_at;`,
			p.Company, p.MyPageURL, p.RecruitmentURL, p.Industry, p.Location, p.WorkLocation,
			p.HiringNumber, p.AvgSalary, p.StartingSalary, p.AnnualHoliday, string(flowJSON),
			p.IDNumber, p.Note, formatTime(p.UpdatedAt)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const profileColumns = `company, mypage_url, recruitment_url, industry, location, work_location,
  hiring_number, avg_salary, starting_salary, annual_holiday, selection_flow, id_number, note, updated_at`

func scanProfile(row rowScanner) (*core.CompanyProfile, error) {
	var (
		p       core.CompanyProfile
		flow    string
		updated string
	)
	if err := row.Scan(&p.Company, &p.MyPageURL, &p.RecruitmentURL, &p.Industry, &p.Location,
		&p.WorkLocation, &p.HiringNumber, &p.AvgSalary, &p.StartingSalary, &p.AnnualHoliday,
		&flow, &p.IDNumber, &p.Note, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(flow), &p.SelectionFlow); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if len(p.SelectionFlow) == 0 {
		p.SelectionFlow = nil
	}
	var err error
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile retrieves the profile for company.
func (r *ProfileRepository) GetProfile(ctx context.Context, company string) (*core.CompanyProfile, error) {
	row := r.db.pool.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE company = ?;`, company)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %q", storage.ErrNotFound, company)
	}
	return p, err
}

// DeleteProfiles removes the profiles for the given companies.
func (r *ProfileRepository) DeleteProfiles(ctx context.Context, companies ...string) error {
	tx, err := r.db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, company := range companies {
		if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE company = ?;`, company); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListProfiles returns every profile, ordered by company name.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*core.CompanyProfile, error) {
	rows, err := r.db.pool.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY company;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.CompanyProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
