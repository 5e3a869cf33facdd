package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"wardroster/internal/model"
	pkgerrors "wardroster/pkg/errors"
)

// ChangeRequestFilter 调班申请列表过滤条件
type ChangeRequestFilter struct {
	Status      string
	Type        string
	RequestedBy string
}

// ChangeRequestRepository 调班申请数据访问接口
type ChangeRequestRepository interface {
	Create(ctx context.Context, req *model.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*model.ChangeRequest, error)
	List(ctx context.Context, filter ChangeRequestFilter, offset, limit int) ([]model.ChangeRequest, int64, error)
	// ListOpenBySchedule 返回引用指定排班条目且仍处于 open 的申请
	ListOpenBySchedule(ctx context.Context, scheduleID string) ([]model.ChangeRequest, error)
	Update(ctx context.Context, req *model.ChangeRequest) error
}

type changeRequestRepo struct {
	db *gorm.DB
}

// NewChangeRequestRepo 创建 ChangeRequestRepository 实例
func NewChangeRequestRepo(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepo{db: db}
}

func (r *changeRequestRepo) Create(ctx context.Context, req *model.ChangeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *changeRequestRepo) GetByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var req model.ChangeRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").Preload("Requester.Ward").
		Preload("TargetUser").
		Where("change_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *changeRequestRepo) List(ctx context.Context, filter ChangeRequestFilter, offset, limit int) ([]model.ChangeRequest, int64, error) {
	var reqs []model.ChangeRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ChangeRequest{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.RequestedBy != "" {
		db = db.Where("requested_by = ?", filter.RequestedBy)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Requester").Preload("TargetUser").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, total, err
}

func (r *changeRequestRepo) ListOpenBySchedule(ctx context.Context, scheduleID string) ([]model.ChangeRequest, error) {
	// JSONB 包含查询：affected_schedules 数组中存在 schedule_id 匹配的元素
	needle, err := json.Marshal([]map[string]string{{"schedule_id": scheduleID}})
	if err != nil {
		return nil, err
	}

	var reqs []model.ChangeRequest
	err = r.db.WithContext(ctx).
		Where("status = ? AND affected_schedules @> ?", model.ChangeStatusOpen, string(needle)).
		Find(&reqs).Error
	return reqs, err
}

func (r *changeRequestRepo) Update(ctx context.Context, req *model.ChangeRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(req).
		Where("change_request_id = ? AND version = ?", req.ChangeRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":        req.Status,
			"accepted_by":   req.AcceptedBy,
			"accepted_at":   req.AcceptedAt,
			"approved_by":   req.ApprovedBy,
			"approved_at":   req.ApprovedAt,
			"rejected_by":   req.RejectedBy,
			"rejected_at":   req.RejectedAt,
			"reject_reason": req.RejectReason,
			"updated_by":    req.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}
