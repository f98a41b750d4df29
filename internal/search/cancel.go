// internal/search/cancel.go

package search

import (
	"context"
	"sync/atomic"
	"time"
)

type stopReason int32

const (
	running stopReason = iota
	cancelled
	timedOut
)

// stopper 每次搜索一个；ctx 取消和超时计时器都只是置位，搜索在展开每个着法前检查
type stopper struct{ f atomic.Int32 }

// Abort 只记录第一个原因
func (s *stopper) Abort(r stopReason) {
	s.f.CompareAndSwap(int32(running), int32(r))
}

func (s *stopper) IsAborted() bool { return s.f.Load() != int32(running) }

func (s *stopper) Reason() stopReason { return stopReason(s.f.Load()) }

// watch 把 ctx 接上；返回的函数解除监听
func (s *stopper) watch(ctx context.Context) func() {
	if ctx.Err() != nil {
		s.Abort(cancelled)
		return func() {}
	}
	stop := context.AfterFunc(ctx, func() { s.Abort(cancelled) })
	return func() { stop() }
}

// arm 启动时间预算计时器；d <= 0 时立即超时
func (s *stopper) arm(d time.Duration) func() {
	if d <= 0 {
		s.Abort(timedOut)
		return func() {}
	}
	t := time.AfterFunc(d, func() { s.Abort(timedOut) })
	return func() { t.Stop() }
}
