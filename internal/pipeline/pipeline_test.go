package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/modelpng-go/internal/codec"
	"github.com/lk2023060901/modelpng-go/pkg/util/merr"
)

func newTestRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	runner, err := NewRunner(opts)
	require.NoError(t, err)
	t.Cleanup(runner.Close)
	return runner
}

func writeInput(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExecuteEncodeDecode(t *testing.T) {
	for _, method := range []codec.Method{codec.MethodChunk, codec.MethodPixel} {
		t.Run(string(method), func(t *testing.T) {
			dir := t.TempDir()
			runner := newTestRunner(t, Options{Concurrency: 1})

			original := []byte("model weights, definitely")
			input := writeInput(t, dir, "model.bin", original)
			carrierPath := filepath.Join(dir, "model.png")
			restored := filepath.Join(dir, "restored.bin")

			res := runner.Execute(context.Background(), Job{
				Action: ActionEncode,
				Method: method,
				Input:  input,
				Output: carrierPath,
			})
			require.NoError(t, res.Err)
			require.NotNil(t, res.Report)
			assert.Equal(t, method, res.Report.Method)
			assert.Equal(t, "model.bin", res.Report.Name)
			assert.Equal(t, len(original), res.Report.OriginalSize)

			res = runner.Execute(context.Background(), Job{
				Action: ActionDecode,
				Method: method,
				Input:  carrierPath,
				Output: restored,
			})
			require.NoError(t, res.Err)

			got, err := os.ReadFile(restored)
			require.NoError(t, err)
			assert.Equal(t, original, got)
		})
	}
}

func TestExecuteInputNotFound(t *testing.T) {
	runner := newTestRunner(t, Options{Concurrency: 1})

	res := runner.Execute(context.Background(), Job{
		Action: ActionEncode,
		Method: codec.MethodChunk,
		Input:  filepath.Join(t.TempDir(), "missing.bin"),
		Output: filepath.Join(t.TempDir(), "out.png"),
	})
	assert.ErrorIs(t, res.Err, merr.ErrInputNotFound)
	assert.Nil(t, res.Report)
}

func TestExecuteFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, Options{Concurrency: 1})

	// 非 PNG 输入解码失败，不应产生输出文件。
	input := writeInput(t, dir, "bogus.png", []byte("not a png"))
	output := filepath.Join(dir, "out.bin")

	res := runner.Execute(context.Background(), Job{
		Action: ActionDecode,
		Method: codec.MethodChunk,
		Input:  input,
		Output: output,
	})
	require.Error(t, res.Err)
	assert.NoFileExists(t, output)
}

func TestExecuteUnknownAction(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, Options{Concurrency: 1})
	input := writeInput(t, dir, "in.bin", []byte("x"))

	res := runner.Execute(context.Background(), Job{
		Action: "transmogrify",
		Method: codec.MethodChunk,
		Input:  input,
		Output: filepath.Join(dir, "out"),
	})
	assert.ErrorIs(t, res.Err, merr.ErrOperationNotSupported)
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, Options{Concurrency: 4})

	jobs := make([]Job, 0, 9)
	for i := 0; i < 8; i++ {
		input := writeInput(t, dir, fmt.Sprintf("m%d.bin", i), []byte(fmt.Sprintf("payload-%d", i)))
		jobs = append(jobs, Job{
			Action: ActionEncode,
			Method: codec.MethodPixel,
			Input:  input,
			Output: filepath.Join(dir, fmt.Sprintf("m%d.png", i)),
		})
	}
	// 中间混入一个必然失败的任务。
	jobs = append(jobs, Job{
		Action: ActionEncode,
		Method: codec.MethodChunk,
		Input:  filepath.Join(dir, "missing.bin"),
		Output: filepath.Join(dir, "missing.png"),
	})

	results := runner.Run(context.Background(), jobs)
	require.Len(t, results, len(jobs))

	var failed int
	for i, res := range results {
		assert.Equal(t, jobs[i].Input, res.Job.Input, "result order must match job order")
		if res.Err != nil {
			failed++
			assert.ErrorIs(t, res.Err, merr.ErrInputNotFound)
		}
	}
	assert.Equal(t, 1, failed)

	succeeded, failedCount := runner.Stats()
	assert.EqualValues(t, 8, succeeded)
	assert.EqualValues(t, 1, failedCount)

	assert.ErrorIs(t, CombineErrors(results), merr.ErrInputNotFound)
}

func TestRunCanceledContext(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, Options{Concurrency: 2})
	input := writeInput(t, dir, "in.bin", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, []Job{{
		Action: ActionEncode,
		Method: codec.MethodChunk,
		Input:  input,
		Output: filepath.Join(dir, "out.png"),
	}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestNewRunnerRejectsBadCompressor(t *testing.T) {
	_, err := NewRunner(Options{Compressor: "brotli"})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestCombineErrorsAllOK(t *testing.T) {
	assert.NoError(t, CombineErrors([]Result{{}, {}}))
}
