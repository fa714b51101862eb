// Package timeout 提供带截止时间的调用封装。
//
// 与简单的 select 竞速不同，超时时会取消 op 的 context，
// op 需要在自己的阻塞点上响应取消，才能真正停止工作。
package timeout

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline 表示操作未能在时限内完成。
var ErrDeadline = errors.New("operation deadline exceeded")

type outcome[T any] struct {
	value T
	err   error
}

// Guard 在 d 时限内执行 op。
// op 先完成时返回它的结果；时限先到则取消 op 并返回 (fallback, nil)，超时本身不算错误。
// 父 context 被取消时返回 (fallback, ctx.Err())。d <= 0 表示不设时限。
func Guard[T any](ctx context.Context, d time.Duration, fallback T, op func(ctx context.Context) (T, error)) (T, error) {
	value, timedOut, err := Run(ctx, d, op)
	if timedOut {
		return fallback, nil
	}
	if err != nil && ctx.Err() != nil {
		return fallback, ctx.Err()
	}
	return value, err
}

// Call 与 Guard 相同，但超时返回 ErrDeadline，供把慢后端视为故障的调用方使用。
func Call(ctx context.Context, d time.Duration, op func(ctx context.Context) error) error {
	_, timedOut, err := Run(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	if timedOut {
		return ErrDeadline
	}
	return err
}

// Run 返回 op 的结果，以及是否因时限到达而放弃了 op。需要区分超时与正常结果的调用方直接使用它。
func Run[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 缓冲为 1，落败的 op 写入后即可退出，不会泄漏 goroutine
	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-done:
		return res.value, false, res.err
	case <-expired:
		return zero, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}
