// Package pipeline 在编解码器之上提供文件级操作面：
// 读入源文件、执行单次编码/解码、原子化写出结果，
// 并支持将相互独立的文件对任务放入协程池并发执行。
//
// 编解码本身是无状态纯变换，只要输出路径互不冲突，
// 多个任务之间没有共享可变状态，可以安全并行。
package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/modelpng-go/internal/carrier"
	"github.com/lk2023060901/modelpng-go/internal/codec"
	"github.com/lk2023060901/modelpng-go/internal/compressor"
	"github.com/lk2023060901/modelpng-go/pkg/log"
	"github.com/lk2023060901/modelpng-go/pkg/metrics"
	"github.com/lk2023060901/modelpng-go/pkg/util/hardware"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

// Action 表示任务类型。
type Action string

const (
	ActionEncode Action = "encode"
	ActionDecode Action = "decode"
)

// Job 描述一次独立的文件编码/解码任务。
type Job struct {
	Action Action       `json:"action"`
	Method codec.Method `json:"method"`
	Input  string       `json:"input"`
	Output string       `json:"output"`
}

// Result 为单个任务的执行结果。
// Err 为 nil 时 Report 有效。
type Result struct {
	Job    Job
	Report *codec.Report
	Err    error
}

// Options 用于构造 Runner。
type Options struct {
	// Concurrency 为并发执行的任务数上限，<=0 时取主机 CPU 核心数。
	Concurrency int

	// ChunkKey 为 chunk 法数据块键名，空字符串时使用默认键。
	ChunkKey string

	// Compressor 为压缩算法名（zlib/zstd/none），空字符串时使用 zlib。
	// 编码端与解码端必须一致。
	Compressor string
}

// Runner 持有编解码器实例与协程池，驱动任务执行。
//
// 同一 Runner 可以复用于多次 Run/Execute 调用；
// 不再使用时应调用 Close 释放协程池。
type Runner struct {
	chunkCodec codec.Codec
	pixelCodec codec.Codec

	pool *Pool

	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewRunner 创建一个 Runner。
func NewRunner(opts Options) (*Runner, error) {
	comp, err := compressor.New(opts.Compressor)
	if err != nil {
		return nil, err
	}

	codecOpts := codec.Options{
		Compressor: comp,
		ChunkKey:   opts.ChunkKey,
	}
	chunkCodec, err := codec.NewChunkCodec(codecOpts)
	if err != nil {
		return nil, err
	}
	pixelCodec, err := codec.NewPixelCodec(codecOpts)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = hardware.GetCPUNum()
	}
	pool, err := NewPool(concurrency)
	if err != nil {
		return nil, err
	}

	return &Runner{
		chunkCodec: chunkCodec,
		pixelCodec: pixelCodec,
		pool:       pool,
	}, nil
}

// Close 释放 Runner 持有的协程池。
func (r *Runner) Close() {
	r.pool.Release()
}

// Stats 返回累计的成功/失败任务数。
func (r *Runner) Stats() (succeeded, failed int64) {
	return r.succeeded.Load(), r.failed.Load()
}

func (r *Runner) codecFor(method codec.Method) (codec.Codec, error) {
	switch method {
	case codec.MethodChunk, "":
		return r.chunkCodec, nil
	case codec.MethodPixel:
		return r.pixelCodec, nil
	default:
		return nil, merr.WrapErrParameterInvalid("chunk|pixel", string(method), "unknown method")
	}
}

// Execute 同步执行单个任务。
//
// 任务要么完整写出输出文件，要么不留下任何输出；
// 错误不会使 Runner 失效，后续任务可以继续执行。
func (r *Runner) Execute(ctx context.Context, job Job) Result {
	start := time.Now()
	report, err := r.execute(ctx, job)

	status := "success"
	if err != nil {
		status = "fail"
		r.failed.Inc()
	} else {
		r.succeeded.Inc()
	}

	metrics.CodecOpTotal.WithLabelValues(string(job.Action), string(job.Method), status).Inc()
	metrics.CodecOpDuration.WithLabelValues(string(job.Action), string(job.Method)).
		Observe(float64(time.Since(start).Milliseconds()))
	if report != nil {
		metrics.PayloadBytes.WithLabelValues(string(job.Method)).Observe(float64(report.OriginalSize))
		metrics.CompressedBytes.WithLabelValues(string(job.Method)).Observe(float64(report.CompressedSize))
	}

	if err != nil {
		log.Ctx(ctx).Warn("codec job failed",
			zap.String("action", string(job.Action)),
			log.FieldMethod(string(job.Method)),
			zap.String("input", job.Input),
			zap.Error(err))
	} else {
		log.Ctx(ctx).Info("codec job finished",
			zap.String("action", string(job.Action)),
			log.FieldMethod(string(job.Method)),
			zap.String("input", job.Input),
			zap.String("output", job.Output),
			zap.Int("originalSize", report.OriginalSize),
			zap.Int("compressedSize", report.CompressedSize),
			zap.Duration("cost", time.Since(start)))
	}

	return Result{Job: job, Report: report, Err: err}
}

func (r *Runner) execute(ctx context.Context, job Job) (*codec.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 输入存在性由调用方在进入编解码器之前检查。
	if !carrier.Exists(job.Input) {
		return nil, merr.WrapErrInputNotFound(job.Input)
	}

	cdc, err := r.codecFor(job.Method)
	if err != nil {
		return nil, err
	}

	data, err := carrier.ReadFile(job.Input)
	if err != nil {
		return nil, err
	}

	switch job.Action {
	case ActionEncode:
		var buf bytes.Buffer
		report, err := cdc.Encode(&buf, codec.Payload{
			Name: filepath.Base(job.Input),
			Data: data,
		})
		if err != nil {
			return nil, err
		}
		if err := carrier.WriteFileAtomic(job.Output, buf.Bytes()); err != nil {
			return nil, err
		}
		return report, nil

	case ActionDecode:
		payload, report, err := cdc.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if err := carrier.WriteFileAtomic(job.Output, payload.Data); err != nil {
			return nil, err
		}
		return report, nil

	default:
		return nil, merr.WrapErrOperationNotSupported(string(job.Action))
	}
}

// Run 并发执行一组相互独立的任务，返回与 jobs 一一对应的结果。
//
// 单个任务失败不会中断其它任务（与 Execute 的隔离语义一致）；
// ctx 取消后尚未开始的任务以 ctx 错误结束。
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for i := range jobs {
		i := i
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.Execute(ctx, jobs[i])
		}); err != nil {
			wg.Done()
			results[i] = Result{Job: jobs[i], Err: err}
		}
	}
	wg.Wait()

	return results
}

// CombineErrors 将一组结果中的错误合并为单个错误，全部成功时返回 nil。
func CombineErrors(results []Result) error {
	errs := lo.FilterMap(results, func(res Result, _ int) (error, bool) {
		return res.Err, res.Err != nil
	})
	return merr.Combine(errs...)
}
