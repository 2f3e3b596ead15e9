// xlogctl 管理行数受限的日志目录。
//
// 用法:
//
//	xlogctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-d, --dir      日志目录 (默认: logs)
//	-c, --config   配置文件 (YAML/JSON)，指定后目录、布局与行数策略取自 file 段
//	--layout       single 或 daily (默认: single)
//	--name         single 布局的文件名 (默认: log.txt)
//	--trigger      触发截断的行数 (默认: 20000，0 表示不截断)
//	--keep         截断后保留的行数 (默认: 10000)
//
// 命令:
//
//	list           列出日志文件
//	read <name>    输出日志文件内容
//	delete <name>  删除历史日志文件（活动文件受保护）
//	clear          清理活动文件，只保留最后 keep 行
//	emit           并发写入测试日志，用于验证截断与顺序
//	watch          持续输出活动文件的新内容
//
// 退出码:
//
//	0: 成功
//	1: 执行失败
//	2: 参数错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/pkg/observability/xlogdir"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xlogctl",
		Usage:     "行数受限日志目录的管理工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "日志目录",
				Value:   "logs",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:  "layout",
				Usage: "single 或 daily",
				Value: xlogdir.LayoutSingle.String(),
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "single 布局的文件名",
				Value: xlogdir.DefaultFileName,
			},
			&cli.IntFlag{
				Name:  "trigger",
				Usage: "触发截断的行数，0 表示不截断",
				Value: xrotate.DefaultPolicy.Trigger,
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "截断后保留的行数",
				Value: xrotate.DefaultPolicy.Keep,
			},
		},
		Commands: createCommands(),
		// 退出码由 run 统一映射，不让 cli 直接 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp(stdout, stderr).Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
