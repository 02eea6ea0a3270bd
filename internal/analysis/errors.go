package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInput 没有提供可分析的文档内容
	ErrNoInput = errors.New("no input document")
	// ErrZeroPages 文档页数为0
	ErrZeroPages = errors.New("document has zero pages")
)

// InputError 输入无效导致分析无法进行
type InputError struct {
	Reason error
	Detail string
}

func (e *InputError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid analysis input: %v", e.Reason)
	}
	return fmt.Sprintf("invalid analysis input: %v (%s)", e.Reason, e.Detail)
}

func (e *InputError) Unwrap() error {
	return e.Reason
}

// validate 检查输入是否可分析
func validate(in *Input) error {
	if in == nil || in.Pages == nil {
		return &InputError{Reason: ErrNoInput}
	}
	if in.TotalPages <= 0 {
		return &InputError{Reason: ErrZeroPages, Detail: fmt.Sprintf("total_pages=%d", in.TotalPages)}
	}
	return nil
}
