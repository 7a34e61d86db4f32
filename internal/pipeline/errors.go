package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/houzhh15/audiomerge/internal/executor"
)

// ErrorKind classifies merge failures.
type ErrorKind string

const (
	// KindValidation 请求参数不合法
	KindValidation ErrorKind = "ValidationError"

	// KindWorkspace 临时工作目录创建失败
	KindWorkspace ErrorKind = "WorkspaceError"

	// KindFetch 远程文件下载或本地写入失败
	KindFetch ErrorKind = "FetchError"

	// KindTransform 归一化、淡入淡出或静音生成失败
	KindTransform ErrorKind = "TransformError"

	// KindProbe 时长探测失败
	KindProbe ErrorKind = "ProbeError"

	// KindAssemble 最终拼接/编码失败
	KindAssemble ErrorKind = "AssembleError"

	// KindPublish 上传到媒体托管服务失败
	KindPublish ErrorKind = "PublishError"

	// KindPurge 按前缀清理失败，不影响请求结果
	KindPurge ErrorKind = "PurgeError"

	// KindTimeout 任一阶段超出时限
	KindTimeout ErrorKind = "TimeoutError"
)

// Error is a classified merge failure.
type Error struct {
	Kind ErrorKind `json:"kind"`
	// Stage is the kind of the step that failed. It differs from Kind only for timeouts.
	Stage     ErrorKind `json:"stage"`
	Message   string    `json:"message"`
	Index     int       `json:"index"`
	URL       string    `json:"url,omitempty"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap 实现错误链支持
func (e *Error) Unwrap() error {
	return e.Cause
}

// newError builds a stage error, reclassifying it as a timeout when the cause is one.
func newError(stage ErrorKind, index int, message string, cause error) *Error {
	kind := stage
	if stage != KindPurge && isTimeout(cause) {
		kind = KindTimeout
	}
	return &Error{
		Kind:      kind,
		Stage:     stage,
		Message:   message,
		Index:     index,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewValidationError 创建请求校验错误
func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, -1, fmt.Sprintf(format, args...), nil)
}

// NewWorkspaceError 创建工作目录错误
func NewWorkspaceError(cause error) *Error {
	return newError(KindWorkspace, -1, "workspace unavailable", cause)
}

// NewFetchError 创建下载错误，携带出错的 URL
func NewFetchError(index int, url string, cause error) *Error {
	e := newError(KindFetch, index, fmt.Sprintf("fetch input %d (%s)", index, url), cause)
	e.URL = url
	return e
}

// NewTransformError 创建转换错误；index 为 -1 表示静音片段
func NewTransformError(index int, cause error) *Error {
	if index < 0 {
		return newError(KindTransform, index, "synthesize silence", cause)
	}
	return newError(KindTransform, index, fmt.Sprintf("transform input %d", index), cause)
}

// NewProbeError 创建时长探测错误
func NewProbeError(index int, cause error) *Error {
	return newError(KindProbe, index, fmt.Sprintf("probe duration of input %d", index), cause)
}

// NewAssembleError 创建拼接错误
func NewAssembleError(cause error) *Error {
	return newError(KindAssemble, -1, "assemble output", cause)
}

// NewPublishError 创建上传错误
func NewPublishError(cause error) *Error {
	return newError(KindPublish, -1, "publish output", cause)
}

// NewPurgeError 创建清理错误
func NewPurgeError(cause error) *Error {
	return newError(KindPurge, -1, "purge hosted assets", cause)
}

// KindOf returns the kind of a merge error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, executor.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
