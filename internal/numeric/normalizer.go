package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultSanityCeiling 默认的数值上限，超过此值视为OCR噪声
const DefaultSanityCeiling = 1e13

var (
	// 纯数字校验：整数或带一位小数点的小数
	cleanNumberRe = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)
	// 严格的表格数字判断，与表格数字密度启发式配合使用
	numericTokenRe = regexp.MustCompile(`^-?\d+([,. ]\d+)*$`)

	currencyReplacer = strings.NewReplacer(
		"₹", "", "$", "", "£", "", "€", "",
		"Rs.", "", "Rs", "", "INR", "",
	)
	dashReplacer = strings.NewReplacer("–", "-", "—", "-", "−", "-")
)

// Normalizer 数字归一化器
// 将OCR提取的噪声文本转换为数值
type Normalizer struct {
	ceiling float64
}

// Option 归一化器配置选项
type Option func(*Normalizer)

// WithSanityCeiling 设置数值上限
func WithSanityCeiling(ceiling float64) Option {
	return func(n *Normalizer) {
		if ceiling > 0 {
			n.ceiling = ceiling
		}
	}
}

// NewNormalizer 创建数字归一化器
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{ceiling: DefaultSanityCeiling}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Default 默认配置的归一化器
var Default = NewNormalizer()

// Normalize 使用默认归一化器解析数字
func Normalize(token string) (float64, bool) {
	return Default.Normalize(token)
}

// Normalize 将文本解析为数值，无法解析时返回false
func (n *Normalizer) Normalize(token string) (float64, bool) {
	s := cleanToken(token)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimSpace(currencyReplacer.Replace(s))
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	s = fixOCRDigits(s)
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}

	s = collapseDots(s)
	if !cleanNumberRe.MatchString(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if math.Abs(v) > n.ceiling {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// Format 数值的规范文本形式
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsNumericToken 判断单元格是否为纯数字
func IsNumericToken(s string) bool {
	s = cleanToken(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return numericTokenRe.MatchString(s)
}

// cleanToken 统一Unicode形式并去掉特殊空白
func cleanToken(token string) string {
	s := norm.NFKC.String(token)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", " ")
	s = dashReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// fixOCRDigits 仅在与数字相邻时将O/o替换为0，l/I替换为1
func fixOCRDigits(s string) string {
	runes := []rune(s)
	for changed := true; changed; {
		changed = false
		for i, r := range runes {
			var repl rune
			switch r {
			case 'O', 'o':
				repl = '0'
			case 'l', 'I':
				repl = '1'
			default:
				continue
			}
			if adjacentDigit(runes, i) {
				runes[i] = repl
				changed = true
			}
		}
	}
	return string(runes)
}

func adjacentDigit(runes []rune, i int) bool {
	if i > 0 && unicode.IsDigit(runes[i-1]) {
		return true
	}
	return i+1 < len(runes) && unicode.IsDigit(runes[i+1])
}

// collapseDots 多个小数点时去掉全部小数点，最后两位作为小数部分
func collapseDots(s string) string {
	if strings.Count(s, ".") <= 1 {
		return s
	}
	digits := strings.ReplaceAll(s, ".", "")
	if len(digits) <= 2 {
		return digits
	}
	return digits[:len(digits)-2] + "." + digits[len(digits)-2:]
}
