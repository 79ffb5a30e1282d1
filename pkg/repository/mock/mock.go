package mock

import (
	"context"
	"time"

	"github.com/reftrack/reftrack/pkg/models"
	"github.com/reftrack/reftrack/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	Accounts *mockAccountRepo
	History  *mockTaskHistoryRepo
	Catalog  *mockCatalogRepo
	Stats    *mockStatsRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Accounts: &mockAccountRepo{},
		History:  &mockTaskHistoryRepo{},
		Catalog:  &mockCatalogRepo{XP: map[string]int64{}},
		Stats:    &mockStatsRepo{},
	}
}

type mockAccountRepo struct {
	Stored    []models.Account
	UpsertErr bool
	AccrueErr error
}

var _ repository.AccountRepo = (*mockAccountRepo)(nil)

func (m *mockAccountRepo) UpsertAccount(ctx context.Context, a *models.Account) bool {
	if m.UpsertErr {
		return false
	}
	saved := *a
	if saved.Status == "" {
		saved.Status = models.StatusActive
	}
	if saved.CreatedAt == 0 {
		saved.CreatedAt = time.Now().UTC().Unix()
	}
	for i := range m.Stored {
		if m.Stored[i].Email == a.Email {
			saved.ID = m.Stored[i].ID
			m.Stored[i] = saved
			return true
		}
	}
	saved.ID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, saved)
	return true
}

func (m *mockAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	for i := range m.Stored {
		if m.Stored[i].Email == email {
			a := m.Stored[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	out := make([]models.Account, len(m.Stored))
	copy(out, m.Stored)
	return out, nil
}

func (m *mockAccountRepo) ListVerifiedActive(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	for _, a := range m.Stored {
		if a.Verified && a.Status == models.StatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) ListPending(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	for _, a := range m.Stored {
		if !a.Verified {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) ListDueForTasks(ctx context.Context, hoursSince int) ([]models.Account, error) {
	if hoursSince <= 0 {
		hoursSince = 20
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hoursSince) * time.Hour).Unix()
	var out []models.Account
	for _, a := range m.Stored {
		if !a.Verified || a.Status != models.StatusActive {
			continue
		}
		if a.LastTaskRun == nil || *a.LastTaskRun < cutoff {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) AccruePoints(ctx context.Context, email string, delta int64) error {
	if m.AccrueErr != nil {
		return m.AccrueErr
	}
	for i := range m.Stored {
		if m.Stored[i].Email == email {
			m.Stored[i].Points += delta
			now := time.Now().UTC().Unix()
			m.Stored[i].LastTaskRun = &now
			return nil
		}
	}
	return repository.ErrAccountNotFound
}

func (m *mockAccountRepo) DeleteAccount(ctx context.Context, email string) error {
	for i := range m.Stored {
		if m.Stored[i].Email == email {
			m.Stored = append(m.Stored[:i], m.Stored[i+1:]...)
			return nil
		}
	}
	return nil
}

type mockTaskHistoryRepo struct {
	Entries   []models.TaskHistoryEntry
	RecordErr error
}

var _ repository.TaskHistoryRepo = (*mockTaskHistoryRepo)(nil)

func (m *mockTaskHistoryRepo) RecordTaskCompletion(ctx context.Context, email, taskType string, xpEarned int64, details map[string]any) (int64, error) {
	if m.RecordErr != nil {
		return 0, m.RecordErr
	}
	id := int64(len(m.Entries) + 1)
	m.Entries = append(m.Entries, models.TaskHistoryEntry{
		ID:          id,
		Email:       email,
		TaskType:    taskType,
		XPEarned:    xpEarned,
		CompletedAt: time.Now().UTC().Unix(),
	})
	return id, nil
}

func (m *mockTaskHistoryRepo) ListTaskHistory(ctx context.Context, email string) ([]models.TaskHistoryEntry, error) {
	var out []models.TaskHistoryEntry
	for _, e := range m.Entries {
		if e.Email == email {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockCatalogRepo struct {
	XP map[string]int64
}

var _ repository.CatalogRepo = (*mockCatalogRepo)(nil)

func (m *mockCatalogRepo) GetTaskXP(ctx context.Context, taskType string) (int64, bool, error) {
	xp, ok := m.XP[taskType]
	return xp, ok, nil
}

func (m *mockCatalogRepo) ListTaskCatalog(ctx context.Context) ([]models.TaskCatalogEntry, error) {
	out := make([]models.TaskCatalogEntry, 0, len(m.XP))
	var id int64
	for t, xp := range m.XP {
		id++
		out = append(out, models.TaskCatalogEntry{ID: id, TaskType: t, XP: xp, Label: t})
	}
	return out, nil
}

func (m *mockCatalogRepo) PutCatalogEntry(ctx context.Context, taskType string, xp int64, label string) (int64, error) {
	m.XP[taskType] = xp
	return int64(len(m.XP)), nil
}

type mockStatsRepo struct {
	Result     *models.Stats
	ComputeErr error
}

var _ repository.StatsRepo = (*mockStatsRepo)(nil)

func (m *mockStatsRepo) ComputeStats(ctx context.Context) (*models.Stats, error) {
	if m.ComputeErr != nil {
		return nil, m.ComputeErr
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.Stats{}, nil
}
