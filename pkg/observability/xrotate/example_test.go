package xrotate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

func ExampleOpenLines() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	r, err := xrotate.OpenLines(filepath.Join(tmpDir, "log.txt"), xrotate.Policy{Trigger: 8, Keep: 3})
	if err != nil {
		fmt.Println("打开失败:", err)
		return
	}
	defer r.Close()

	for i := 1; i <= 7; i++ {
		_ = r.Append("line " + strconv.Itoa(i))
	}

	content, _ := os.ReadFile(r.Path())
	fmt.Print(string(content))
	// Output:
	// line 5
	// line 6
	// line 7
}

func ExampleNewLumberjack() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	r, err := xrotate.NewLumberjack(filepath.Join(tmpDir, "diag.log"),
		xrotate.WithMaxSize(10),
		xrotate.WithMaxBackups(3),
		xrotate.WithCompress(false),
	)
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}
	defer r.Close()

	_, _ = r.Write([]byte("hello xrotate\n"))
	fmt.Println("写入成功")
	// Output: 写入成功
}
