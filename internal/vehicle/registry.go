package vehicle

import (
	"context"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/middleware"
)

// CheckedRegistry 带熔断的车辆登记查询。
// 登记侧是外部协作方，连续查询失败时快速失败，避免把存储抖动
// 放大到每一次检查单创建上。
type CheckedRegistry struct {
	repo *Repo
	cb   *middleware.CircuitBreaker
}

func NewCheckedRegistry(repo *Repo) *CheckedRegistry {
	return &CheckedRegistry{
		repo: repo,
		cb:   middleware.NewCircuitBreaker("vehicle-registry", 5, 30*time.Second),
	}
}

var _ Registry = (*CheckedRegistry)(nil)

func (r *CheckedRegistry) Exists(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	err := r.cb.Call(ctx, func() error {
		var callErr error
		exists, callErr = r.repo.Exists(ctx, vehicleID)
		return callErr
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}
