// Package goid reads the current goroutine id for log correlation.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// GetGID 获取当前 goroutine 的 ID，解析失败返回 0
func GetGID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// 栈信息类似: "goroutine 123 [running]:\n"
	b := bytes.TrimPrefix(buf[:n], prefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
