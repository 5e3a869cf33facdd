package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"wardroster/internal/model"
	"wardroster/internal/repository"
	pkgerrors "wardroster/pkg/errors"
)

// ── Mock WardRepository ──

type mockWardRepo struct {
	wards map[string]*model.Ward
}

func newMockWardRepo() *mockWardRepo {
	return &mockWardRepo{wards: make(map[string]*model.Ward)}
}

func (m *mockWardRepo) GetByID(_ context.Context, id string) (*model.Ward, error) {
	if w, ok := m.wards[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWardRepo) List(_ context.Context) ([]model.Ward, error) {
	var result []model.Ward
	for _, w := range m.wards {
		result = append(result, *w)
	}
	return result, nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByWard(_ context.Context, wardID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.WardID == wardID {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock PeriodRepository ──

// 与真实实现一致：查询返回副本，Update 按版本号 CAS
type mockPeriodRepo struct {
	periods map[string]*model.SchedulePeriod
	seq     int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.SchedulePeriod)}
}

func (m *mockPeriodRepo) Create(_ context.Context, period *model.SchedulePeriod) error {
	if period.PeriodID == "" {
		m.seq++
		period.PeriodID = fmt.Sprintf("period-%03d", m.seq)
	}
	if period.Version == 0 {
		period.Version = 1
	}
	stored := *period
	m.periods[period.PeriodID] = &stored
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.SchedulePeriod, error) {
	if p, ok := m.periods[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) GetActiveByWard(_ context.Context, wardID string) (*model.SchedulePeriod, error) {
	var latest *model.SchedulePeriod
	for _, p := range m.periods {
		if p.WardID != wardID || p.Status != model.PeriodStatusOpen {
			continue
		}
		if latest == nil || p.MonthYear > latest.MonthYear {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *mockPeriodRepo) GetOpenByWardMonth(_ context.Context, wardID, monthYear string) (*model.SchedulePeriod, error) {
	for _, p := range m.periods {
		if p.WardID == wardID && p.MonthYear == monthYear && p.Status == model.PeriodStatusOpen {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) GetNonClosedByWardMonth(_ context.Context, wardID, monthYear string) (*model.SchedulePeriod, error) {
	for _, p := range m.periods {
		if p.WardID == wardID && p.MonthYear == monthYear && p.Status != model.PeriodStatusClosed {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) List(_ context.Context, wardID string) ([]model.SchedulePeriod, error) {
	var result []model.SchedulePeriod
	for _, p := range m.periods {
		if wardID == "" || p.WardID == wardID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.SchedulePeriod) error {
	stored, ok := m.periods[period.PeriodID]
	if !ok || stored.Version != period.Version {
		return pkgerrors.ErrOptimisticLock
	}
	period.Version++
	copied := *period
	m.periods[period.PeriodID] = &copied
	return nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	entries map[string]*model.ScheduleEntry
	seq     int

	// updateErr 不为空时 Update 对指定条目返回该错误（模拟并发冲突等）
	updateErr map[string]error
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{
		entries:   make(map[string]*model.ScheduleEntry),
		updateErr: make(map[string]error),
	}
}

func (m *mockScheduleRepo) BatchCreate(_ context.Context, entries []model.ScheduleEntry) error {
	// 与唯一索引 uq_schedule_entries_slot 对齐
	seen := make(map[string]bool)
	for _, stored := range m.entries {
		seen[slotKey(stored)] = true
	}
	for i := range entries {
		if seen[slotKey(&entries[i])] {
			return pkgerrors.ErrUniqueViolation
		}
		seen[slotKey(&entries[i])] = true
	}
	for i := range entries {
		if entries[i].ScheduleID == "" {
			m.seq++
			entries[i].ScheduleID = fmt.Sprintf("sch-%03d", m.seq)
		}
		if entries[i].Version == 0 {
			entries[i].Version = 1
		}
		stored := entries[i]
		m.entries[entries[i].ScheduleID] = &stored
	}
	return nil
}

func slotKey(e *model.ScheduleEntry) string {
	return strings.Join([]string{e.UserID, e.WardID, e.Date.Format("2006-01-02"), e.ShiftCode}, "|")
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.ScheduleEntry, error) {
	if e, ok := m.entries[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListByWardAndRange(_ context.Context, wardID string, from, to time.Time) ([]model.ScheduleEntry, error) {
	var result []model.ScheduleEntry
	for _, e := range m.entries {
		if e.WardID != wardID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, entry *model.ScheduleEntry) error {
	if err, ok := m.updateErr[entry.ScheduleID]; ok {
		return err
	}
	stored, ok := m.entries[entry.ScheduleID]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version++
	copied := *entry
	m.entries[entry.ScheduleID] = &copied
	return nil
}

// ── Mock ScheduleChangeLogRepository ──

type mockScheduleChangeLogRepo struct {
	logs []model.ScheduleChangeLog
}

func newMockScheduleChangeLogRepo() *mockScheduleChangeLogRepo {
	return &mockScheduleChangeLogRepo{}
}

func (m *mockScheduleChangeLogRepo) Create(_ context.Context, log *model.ScheduleChangeLog) error {
	if log.ChangeLogID == "" {
		log.ChangeLogID = fmt.Sprintf("log-%03d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockScheduleChangeLogRepo) ListBySchedule(_ context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error) {
	var matched []model.ScheduleChangeLog
	for _, l := range m.logs {
		if l.ScheduleID == scheduleID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── Mock ChangeRequestRepository ──

type mockChangeRequestRepo struct {
	requests map[string]*model.ChangeRequest
	seq      int
}

func newMockChangeRequestRepo() *mockChangeRequestRepo {
	return &mockChangeRequestRepo{requests: make(map[string]*model.ChangeRequest)}
}

func (m *mockChangeRequestRepo) Create(_ context.Context, req *model.ChangeRequest) error {
	if req.ChangeRequestID == "" {
		m.seq++
		req.ChangeRequestID = fmt.Sprintf("cr-%03d", m.seq)
	}
	if req.Version == 0 {
		req.Version = 1
	}
	stored := *req
	m.requests[req.ChangeRequestID] = &stored
	return nil
}

func (m *mockChangeRequestRepo) GetByID(_ context.Context, id string) (*model.ChangeRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChangeRequestRepo) List(_ context.Context, filter repository.ChangeRequestFilter, offset, limit int) ([]model.ChangeRequest, int64, error) {
	var matched []model.ChangeRequest
	for _, r := range m.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.RequestedBy != "" && r.RequestedBy != filter.RequestedBy {
			continue
		}
		matched = append(matched, *r)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockChangeRequestRepo) ListOpenBySchedule(_ context.Context, scheduleID string) ([]model.ChangeRequest, error) {
	var result []model.ChangeRequest
	for _, r := range m.requests {
		if r.Status != model.ChangeStatusOpen {
			continue
		}
		for _, a := range r.AffectedSchedules {
			if a.ScheduleID == scheduleID {
				result = append(result, *r)
				break
			}
		}
	}
	return result, nil
}

func (m *mockChangeRequestRepo) Update(_ context.Context, req *model.ChangeRequest) error {
	stored, ok := m.requests[req.ChangeRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	copied := *req
	m.requests[req.ChangeRequestID] = &copied
	return nil
}
