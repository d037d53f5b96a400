// modelpng 将任意二进制文件（典型场景是模型权重）编码为 PNG 图片，
// 或从这样的图片中还原原始文件。
//
// 用法：
//
//	modelpng encode [flags] <input> <output.png>
//	modelpng decode [flags] <input.png> <output>
//	modelpng batch  [flags] <manifest>
//
// 通用 flag：
//
//	--config      配置文件路径（yaml/json）
//	--method      编码方法：chunk（默认）或 pixel
//	--chunk-key   chunk 法元数据键名（默认 mOdL）
//	--compressor  压缩算法：zlib（默认）、zstd 或 none
//	--json        以 JSON 形式输出报告
//
// batch 专用 flag：
//
//	--concurrency 并发任务数上限（默认取 CPU 核心数）
//
// manifest 为 JSON 数组（[{"action","method","input","output"},...]），
// 或逐行的制表符分隔文本：action<TAB>method<TAB>input<TAB>output。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "go.uber.org/automaxprocs"

	"github.com/lk2023060901/modelpng-go/application"
	"github.com/lk2023060901/modelpng-go/internal/codec"
	"github.com/lk2023060901/modelpng-go/internal/json"
	"github.com/lk2023060901/modelpng-go/internal/pipeline"
	"github.com/lk2023060901/modelpng-go/pkg/log"
	"github.com/lk2023060901/modelpng-go/pkg/metrics"
	"github.com/lk2023060901/modelpng-go/pkg/util/typeutil"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	verb := args[0]
	switch verb {
	case "encode", "decode", "batch":
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "modelpng: unknown command %q\n\n", verb)
		usage()
		return 2
	}

	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	var (
		configPath  = fs.String("config", "", "config file path (yaml/json)")
		methodName  = fs.String("method", "", "codec method: chunk or pixel")
		chunkKey    = fs.String("chunk-key", "", "metadata key for the chunk method")
		compName    = fs.String("compressor", "", "compression backend: zlib, zstd or none")
		jsonOut     = fs.Bool("json", false, "print the report as JSON")
		concurrency = fs.Int("concurrency", 0, "max parallel jobs in batch mode (0 = CPU count)")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	app := application.New()
	settings, err := app.Setup(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelpng: %v\n", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	metrics.Register(metrics.GetRegisterer())

	// 命令行 flag 覆盖配置文件。
	if *methodName == "" {
		*methodName = settings.Method
	}
	if *chunkKey == "" {
		*chunkKey = settings.ChunkKey
	}
	if *compName == "" {
		*compName = settings.Compressor
	}
	if *concurrency <= 0 {
		*concurrency = settings.Concurrency
	}

	method, err := codec.ParseMethod(*methodName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelpng: %v\n", err)
		return 2
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		Concurrency: *concurrency,
		ChunkKey:    *chunkKey,
		Compressor:  *compName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelpng: %v\n", err)
		return 1
	}
	defer runner.Close()

	ctx := context.Background()

	switch verb {
	case "encode", "decode":
		if fs.NArg() != 2 {
			fmt.Fprintf(os.Stderr, "modelpng: %s requires <input> and <output> arguments\n", verb)
			return 2
		}
		job := pipeline.Job{
			Action: pipeline.Action(verb),
			Method: method,
			Input:  fs.Arg(0),
			Output: fs.Arg(1),
		}
		res := runner.Execute(ctx, job)
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "modelpng: %v\n", res.Err)
			return 1
		}
		printReport(res, *jsonOut)
		return 0

	case "batch":
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "modelpng: batch requires a <manifest> argument")
			return 2
		}
		jobs, err := loadManifest(fs.Arg(0), method)
		if err != nil {
			fmt.Fprintf(os.Stderr, "modelpng: %v\n", err)
			return 1
		}

		results := runner.Run(ctx, jobs)
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(os.Stderr, "modelpng: %s %s: %v\n", res.Job.Action, res.Job.Input, res.Err)
				continue
			}
			printReport(res, *jsonOut)
		}

		succeeded, failed := runner.Stats()
		fmt.Printf("batch finished: %d succeeded, %d failed\n", succeeded, failed)
		if failed > 0 {
			return 1
		}
		return 0
	}

	return 0
}

// loadManifest 读取 batch 任务清单。
// JSON 数组与制表符分隔文本两种格式均可；
// 清单中未指定 method 的任务继承命令行 method。
func loadManifest(path string, defaultMethod codec.Method) ([]pipeline.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}

	var jobs []pipeline.Job
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, fmt.Errorf("parse manifest %q: %w", path, err)
		}
	} else {
		scanner := bufio.NewScanner(strings.NewReader(trimmed))
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Split(line, "\t")
			if len(fields) != 4 {
				return nil, fmt.Errorf("manifest %q line %d: want 4 tab-separated fields, got %d", path, lineNo, len(fields))
			}
			jobs = append(jobs, pipeline.Job{
				Action: pipeline.Action(fields[0]),
				Method: codec.Method(fields[1]),
				Input:  fields[2],
				Output: fields[3],
			})
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read manifest %q: %w", path, err)
		}
	}

	// 任务彼此独立才允许并发执行，重复的输出路径会互相覆盖。
	outputs := typeutil.NewPathSet()
	for i := range jobs {
		if jobs[i].Method == "" {
			jobs[i].Method = defaultMethod
		}
		if outputs.Contain(jobs[i].Output) {
			return nil, fmt.Errorf("manifest %q: duplicate output path %q", path, jobs[i].Output)
		}
		outputs.Insert(jobs[i].Output)
	}
	return jobs, nil
}

func printReport(res pipeline.Result, asJSON bool) {
	if asJSON {
		out, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "modelpng: marshal report: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}

	rep := res.Report
	switch res.Job.Action {
	case pipeline.ActionEncode:
		fmt.Printf("encoded %s -> %s\n", res.Job.Input, res.Job.Output)
	case pipeline.ActionDecode:
		fmt.Printf("decoded %s -> %s\n", res.Job.Input, res.Job.Output)
	}
	if res.Job.Action == pipeline.ActionEncode {
		if info, err := os.Stat(res.Job.Output); err == nil {
			fmt.Printf("  carrier size:    %d bytes\n", info.Size())
		}
	}
	fmt.Printf("  method:          %s\n", rep.Method)
	if rep.Name != "" {
		fmt.Printf("  name:            %s\n", rep.Name)
	}
	fmt.Printf("  original size:   %d bytes\n", rep.OriginalSize)
	fmt.Printf("  compressed size: %d bytes\n", rep.CompressedSize)
	if rep.Ratio > 0 {
		fmt.Printf("  ratio:           %.2fx\n", rep.Ratio)
	}
	if rep.Method == codec.MethodPixel {
		fmt.Printf("  grid:            %dx%d\n", rep.Width, rep.Height)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: modelpng <command> [flags] <args>

commands:
  encode <input> <output.png>   pack a file into a PNG carrier
  decode <input.png> <output>   restore the original file from a carrier
  batch  <manifest>             run independent jobs concurrently

flags:
  --config      config file path (yaml/json)
  --method      codec method: chunk (default) or pixel
  --chunk-key   metadata key for the chunk method (default mOdL)
  --compressor  compression backend: zlib (default), zstd or none
  --json        print reports as JSON
  --concurrency max parallel jobs in batch mode (0 = CPU count)
`)
}
