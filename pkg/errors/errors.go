package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 数据库唯一约束冲突（由 Repository 层统一转换）
var ErrUniqueViolation = errors.New("数据已存在，唯一约束冲突")
