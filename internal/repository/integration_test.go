//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "wardroster/pkg/errors"

	"wardroster/internal/model"
	"wardroster/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=wardroster password=wardroster_password dbname=wardroster_test sslmode=disable TimeZone=Asia/Jakarta"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Ward{},
		&model.User{},
		&model.SchedulePeriod{},
		&model.ScheduleEntry{},
		&model.ChangeRequest{},
		&model.ScheduleChangeLog{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	// AutoMigrate 不含部分唯一索引，与正式迁移保持一致
	err = testDB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_schedule_entries_slot
		ON schedule_entries (user_id, ward_id, date, shift_code)
		WHERE deleted_at IS NULL`).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建唯一索引失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (ward *model.Ward, user *model.User, period *model.SchedulePeriod, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	ward = &model.Ward{
		Name:     fmt.Sprintf("测试病区-%d", time.Now().UnixNano()),
		Code:     fmt.Sprintf("W%d", time.Now().UnixNano()%100000),
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(ward).Error; err != nil {
		t.Fatalf("创建病区失败: %v", err)
	}

	user = &model.User{
		Name:     "测试护士",
		StaffID:  fmt.Sprintf("N%d", time.Now().UnixNano()%1000000),
		Role:     "staff",
		WardID:   ward.WardID,
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	period = &model.SchedulePeriod{
		WardID:    ward.WardID,
		MonthYear: "2024-05",
		Status:    model.PeriodStatusOpen,
	}
	if err := testDB.WithContext(ctx).Create(period).Error; err != nil {
		t.Fatalf("创建排班周期失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("period_id = ?", period.PeriodID).Delete(&model.SchedulePeriod{})
		testDB.Unscoped().Where("ward_id = ?", ward.WardID).Delete(&model.ScheduleEntry{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
		testDB.Unscoped().Where("ward_id = ?", ward.WardID).Delete(&model.Ward{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// PeriodRepository
// ═══════════════════════════════════════════════════════════

func TestPeriodRepo_OptimisticLock(t *testing.T) {
	_, _, period, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	first, err := repo.Period.GetByID(ctx, period.PeriodID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	second, err := repo.Period.GetByID(ctx, period.PeriodID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}

	first.Status = model.PeriodStatusClosed
	if err := repo.Period.Update(ctx, first); err != nil {
		t.Fatalf("首次更新应成功: %v", err)
	}

	second.Status = model.PeriodStatusClosed
	if err := repo.Period.Update(ctx, second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本更新期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestPeriodRepo_GetOpenByWardMonth(t *testing.T) {
	ward, _, period, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	found, err := repo.Period.GetOpenByWardMonth(ctx, ward.WardID, "2024-05")
	if err != nil {
		t.Fatalf("GetOpenByWardMonth 失败: %v", err)
	}
	if found.PeriodID != period.PeriodID {
		t.Errorf("期望返回 %s，实际=%s", period.PeriodID, found.PeriodID)
	}

	if _, err := repo.Period.GetOpenByWardMonth(ctx, ward.WardID, "2024-06"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("无覆盖月份期望 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleRepository
// ═══════════════════════════════════════════════════════════

func TestScheduleRepo_BatchCreateAndRange(t *testing.T) {
	ward, user, _, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	entries := []model.ScheduleEntry{
		{UserID: user.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), ShiftCode: "morning", Status: model.ScheduleStatusAssigned},
		{UserID: user.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), ShiftCode: "night", Status: model.ScheduleStatusAssigned},
	}
	if err := repo.Schedule.BatchCreate(ctx, entries); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	list, err := repo.Schedule.ListByWardAndRange(ctx, ward.WardID,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListByWardAndRange 失败: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("期望范围内1条，实际=%d", len(list))
	}
}

func TestScheduleRepo_UpdateSlotConflict(t *testing.T) {
	ward, user, _, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	other := &model.User{
		Name:     "测试护士B",
		StaffID:  fmt.Sprintf("N%d", time.Now().UnixNano()%1000000),
		Role:     "staff",
		WardID:   ward.WardID,
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(other).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}
	defer testDB.Unscoped().Where("user_id = ?", other.UserID).Delete(&model.User{})

	// 两人同日同班次各有一条排班
	entries := []model.ScheduleEntry{
		{UserID: user.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), ShiftCode: "morning", Status: model.ScheduleStatusAssigned},
		{UserID: other.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), ShiftCode: "morning", Status: model.ScheduleStatusAssigned},
	}
	if err := repo.Schedule.BatchCreate(ctx, entries); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	// 换入后撞槽，唯一索引冲突应被转换
	entry, err := repo.Schedule.GetByID(ctx, entries[0].ScheduleID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	entry.UserID = other.UserID
	entry.Status = model.ScheduleStatusSwap
	if err := repo.Schedule.Update(ctx, entry); !errors.Is(err, pkgerrors.ErrUniqueViolation) {
		t.Errorf("撞槽更新期望 ErrUniqueViolation，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// ChangeRequestRepository
// ═══════════════════════════════════════════════════════════

func TestChangeRequestRepo_ListOpenBySchedule(t *testing.T) {
	ward, user, _, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	entries := []model.ScheduleEntry{
		{UserID: user.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), ShiftCode: "morning", Status: model.ScheduleStatusAssigned},
	}
	if err := repo.Schedule.BatchCreate(ctx, entries); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}
	scheduleID := entries[0].ScheduleID

	req := &model.ChangeRequest{
		Type:        model.ChangeTypeLeave,
		Status:      model.ChangeStatusOpen,
		RequestedBy: user.UserID,
		AffectedSchedules: model.AffectedScheduleList{
			{ScheduleID: scheduleID, Date: "2024-05-10", ShiftCode: "morning"},
		},
	}
	if err := repo.ChangeRequest.Create(ctx, req); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	defer testDB.Unscoped().Where("change_request_id = ?", req.ChangeRequestID).Delete(&model.ChangeRequest{})

	// JSONB 包含查询应命中
	open, err := repo.ChangeRequest.ListOpenBySchedule(ctx, scheduleID)
	if err != nil {
		t.Fatalf("ListOpenBySchedule 失败: %v", err)
	}
	if len(open) != 1 {
		t.Errorf("期望命中1条进行中申请，实际=%d", len(open))
	}

	// 终态后不再命中
	got, _ := repo.ChangeRequest.GetByID(ctx, req.ChangeRequestID)
	got.Status = model.ChangeStatusCancelled
	if err := repo.ChangeRequest.Update(ctx, got); err != nil {
		t.Fatalf("更新申请失败: %v", err)
	}
	open, err = repo.ChangeRequest.ListOpenBySchedule(ctx, scheduleID)
	if err != nil {
		t.Fatalf("ListOpenBySchedule 失败: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("终态申请不应命中，实际=%d", len(open))
	}
}

// ═══════════════════════════════════════════════════════════
// Transaction Rollback
// ═══════════════════════════════════════════════════════════

func TestRepository_TxRollback(t *testing.T) {
	ward, user, _, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	entries := []model.ScheduleEntry{
		{UserID: user.UserID, WardID: ward.WardID, Date: time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), ShiftCode: "morning", Status: model.ScheduleStatusAssigned},
	}
	if err := repo.Schedule.BatchCreate(ctx, entries); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	entry, err := txRepo.Schedule.GetByID(ctx, entries[0].ScheduleID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	entry.Status = model.ScheduleStatusLeave
	if err := txRepo.Schedule.Update(ctx, entry); err != nil {
		t.Fatalf("事务内更新失败: %v", err)
	}

	tx.Rollback()

	// 回滚后变更不可见
	after, err := repo.Schedule.GetByID(ctx, entries[0].ScheduleID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if after.Status != model.ScheduleStatusAssigned {
		t.Errorf("回滚后条目应保持 assigned，实际=%s", after.Status)
	}
	if after.Version != 1 {
		t.Errorf("回滚后版本应保持1，实际=%d", after.Version)
	}
}
