package pipeline

import (
	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/modelpng-go/pkg/log"
)

type poolOption struct {
	// preAlloc 表示是否预先分配 worker。
	preAlloc bool
	// nonBlocking 表示当协程池已满时是否不阻塞调用方。
	nonBlocking bool
	// concealPanic 表示当任务发生 panic 时是否吞掉异常。
	concealPanic bool
}

func (opt *poolOption) antsOptions() []ants.Option {
	var result []ants.Option
	result = append(result, ants.WithPreAlloc(opt.preAlloc))
	result = append(result, ants.WithNonblocking(opt.nonBlocking))
	// ants 默认会 recover panic，
	// 但不会将错误返回给调用方。
	result = append(result, ants.WithPanicHandler(func(v any) {
		log.Error("pipeline pool panicked", zap.Any("panic", v))
		if !opt.concealPanic {
			panic(v)
		}
	}))
	return result
}

// PoolOption 用于配置协程池行为的选项函数。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{
		preAlloc:     false,
		nonBlocking:  false,
		concealPanic: false,
	}
}

func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.nonBlocking = v
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

// Pool 封装 ants.Pool，统一 panic 处理与日志行为。
type Pool struct {
	inner *ants.Pool
}

// NewPool 创建容量为 size 的协程池。
func NewPool(size int, opts ...PoolOption) (*Pool, error) {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	inner, err := ants.NewPool(size, opt.antsOptions()...)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner}, nil
}

// Submit 向池中提交一个任务。
// 池已满且配置为非阻塞时返回错误，否则阻塞直到有空闲 worker。
func (p *Pool) Submit(task func()) error {
	return p.inner.Submit(task)
}

// Release 关闭协程池并释放 worker。
func (p *Pool) Release() {
	p.inner.Release()
}
