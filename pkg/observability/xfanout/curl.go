package xfanout

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

// curlSeparator cURL 命令各参数之间的续行符。
const curlSeparator = " \\\n\t"

// CurlString 把请求渲染为可复制执行的 cURL 命令。
//
// withBody 为 false 时请求体以占位符代替；非 UTF-8 的请求体同样使用占位符。
// 读取请求体后会恢复 req.Body，调用方可以继续发送该请求。
func CurlString(req *http.Request, withBody bool) string {
	if req == nil || req.URL == nil {
		return ""
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	base := "curl -L " + shellQuote(req.URL.String())
	if method == http.MethodHead {
		base += " --head"
	}
	parts := []string{base}
	if method != http.MethodHead {
		parts = append(parts, "-X "+method)
	}

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H "+shellQuote(k+": "+v))
		}
	}

	if body, ok := readBody(req); ok {
		switch {
		case !withBody:
			parts = append(parts, "-d '<body is omitted>'")
		case utf8.Valid(body):
			parts = append(parts, "-d "+shellQuote(string(body)))
		default:
			parts = append(parts, "-d '<body is non-string>'")
		}
	}
	return strings.Join(parts, curlSeparator)
}

// readBody 读取并恢复请求体；没有请求体或读取失败时返回 false。
func readBody(req *http.Request) ([]byte, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, false
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		defer func() { _ = rc.Close() }()
		data, err := io.ReadAll(rc)
		return data, err == nil && len(data) > 0
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, err == nil && len(data) > 0
}

// shellQuote 用单引号包裹，内部的单引号写成 '\''。
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// LogRequest 以 Debug 级别记录请求的 cURL 形式，prefix 非空时放在命令之前。
func (d *Dispatcher) LogRequest(category string, req *http.Request, withBody bool, prefix string) {
	if !d.enabled.Load() {
		return
	}
	cmd := CurlString(req, withBody)
	if prefix != "" {
		cmd = Join(prefix, cmd)
	}
	d.Log(LevelDebug, category, cmd)
}
