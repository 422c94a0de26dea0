package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
)

// gcInterval 值日志垃圾回收间隔
const gcInterval = 30 * time.Minute

// RunValueLogGC 执行值日志垃圾回收
// 清理已删除或被覆盖的值，降低磁盘占用
func (s *Store) RunValueLogGC(discardRatio float64) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()

	err = s.db.RunValueLogGC(discardRatio)
	if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) && !errors.Is(err, badgerdb.ErrRejected) {
		return fmt.Errorf("值日志垃圾回收失败: %w", err)
	}
	return nil
}

// StartMaintenanceRoutines 启动定期维护任务
func (s *Store) StartMaintenanceRoutines(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(gcInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunValueLogGC(0.5); err != nil {
					s.logger.Warnf("定期值日志垃圾回收失败: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
