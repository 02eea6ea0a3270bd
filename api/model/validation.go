package model

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fyerfyer/finsight/internal/document"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 向gin的校验引擎注册自定义规则
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("docname", validateDocName)
		}
	})
}

// validateDocName 文件名不能包含路径，且必须是支持的文档类型
func validateDocName(fl validator.FieldLevel) bool {
	return ValidDocName(fl.Field().String())
}

// ValidDocName 检查文件名
func ValidDocName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return document.DetectContentType(name) != document.Unknown
}
