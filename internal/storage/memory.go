package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for local runs and tests.
//
// Transactions are serialized. Each one works on a copy of the tables that
// replaces the live tables only on commit, so a failed transaction leaves no
// trace.
type MemoryStore struct {
	mu     sync.Mutex
	tables *memTables
}

type memTables struct {
	companies   []Company
	jobPostings []JobPosting
	benefits    []Benefit
	nextBenefit int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: &memTables{nextBenefit: 1}}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.tables.clone()
	if err := fn(&memTx{t: work}); err != nil {
		return err
	}

	s.tables = work
	return nil
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Driver() string {
	return "memory"
}

func (t *memTables) clone() *memTables {
	c := &memTables{nextBenefit: t.nextBenefit}
	c.companies = append([]Company(nil), t.companies...)
	c.jobPostings = append([]JobPosting(nil), t.jobPostings...)
	c.benefits = append([]Benefit(nil), t.benefits...)
	return c
}

// memTx implements Tx over a private copy of the tables. Rows are copied on
// the way in and out so callers never alias stored values.
type memTx struct {
	t *memTables
}

func equalKey(stored, key *string) bool {
	return stored != nil && key != nil && *stored == *key
}

// Companies

func (m *memTx) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	for i := range m.t.companies {
		if m.t.companies[i].CompanyID == id {
			c := m.t.companies[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTx) FindCompanyByName(ctx context.Context, name *string) (*Company, error) {
	for i := range m.t.companies {
		if equalKey(m.t.companies[i].CompanyName, name) {
			c := m.t.companies[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTx) InsertCompany(ctx context.Context, c *Company) error {
	m.t.companies = append(m.t.companies, *c)
	return nil
}

func (m *memTx) UpdateCompany(ctx context.Context, c *Company) error {
	for i := range m.t.companies {
		if m.t.companies[i].CompanyID == c.CompanyID {
			m.t.companies[i].Location = c.Location
			m.t.companies[i].Description = c.Description
			m.t.companies[i].URL = c.URL
			return nil
		}
	}
	return ErrNotFound
}

func (m *memTx) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	for i := range m.t.companies {
		if m.t.companies[i].CompanyID == id {
			m.t.companies = append(m.t.companies[:i], m.t.companies[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memTx) CountCompanies(ctx context.Context) (int64, error) {
	return int64(len(m.t.companies)), nil
}

// Job postings

func (m *memTx) GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	for i := range m.t.jobPostings {
		if m.t.jobPostings[i].JobID == id {
			j := m.t.jobPostings[i]
			return &j, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTx) FindJobPostingByURL(ctx context.Context, url *string) (*JobPosting, error) {
	for i := range m.t.jobPostings {
		if equalKey(m.t.jobPostings[i].URL, url) {
			j := m.t.jobPostings[i]
			return &j, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTx) InsertJobPosting(ctx context.Context, j *JobPosting) error {
	m.t.jobPostings = append(m.t.jobPostings, *j)
	return nil
}

func (m *memTx) UpdateJobPosting(ctx context.Context, j *JobPosting) error {
	for i := range m.t.jobPostings {
		if m.t.jobPostings[i].JobID == j.JobID {
			url := m.t.jobPostings[i].URL
			m.t.jobPostings[i] = *j
			m.t.jobPostings[i].URL = url
			return nil
		}
	}
	return ErrNotFound
}

func (m *memTx) DeleteJobPosting(ctx context.Context, id uuid.UUID) error {
	for i := range m.t.jobPostings {
		if m.t.jobPostings[i].JobID == id {
			m.t.jobPostings = append(m.t.jobPostings[:i], m.t.jobPostings[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memTx) DeleteJobPostingsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	kept := m.t.jobPostings[:0]
	var removed int64
	for _, j := range m.t.jobPostings {
		if j.CompanyID != nil && *j.CompanyID == companyID {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	m.t.jobPostings = kept
	return removed, nil
}

func (m *memTx) CountJobPostings(ctx context.Context) (int64, error) {
	return int64(len(m.t.jobPostings)), nil
}

// Benefits

func (m *memTx) GetBenefit(ctx context.Context, id int64) (*Benefit, error) {
	for i := range m.t.benefits {
		if m.t.benefits[i].ID == id {
			b := m.t.benefits[i]
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTx) InsertBenefit(ctx context.Context, b *Benefit) error {
	b.ID = m.t.nextBenefit
	m.t.nextBenefit++
	m.t.benefits = append(m.t.benefits, *b)
	return nil
}

func (m *memTx) DeleteBenefit(ctx context.Context, id int64) error {
	for i := range m.t.benefits {
		if m.t.benefits[i].ID == id {
			m.t.benefits = append(m.t.benefits[:i], m.t.benefits[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memTx) DeleteBenefitsByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	kept := m.t.benefits[:0]
	var removed int64
	for _, b := range m.t.benefits {
		if b.JobID == jobID {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	m.t.benefits = kept
	return removed, nil
}

func (m *memTx) CountBenefits(ctx context.Context) (int64, error) {
	return int64(len(m.t.benefits)), nil
}
