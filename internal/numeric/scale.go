package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ScaleUnit 金额单位
type ScaleUnit string

const (
	// Thousand 千
	Thousand ScaleUnit = "thousand"
	// Lakh 十万
	Lakh ScaleUnit = "lakh"
	// Million 百万
	Million ScaleUnit = "million"
	// Crore 千万
	Crore ScaleUnit = "crore"
	// Billion 十亿
	Billion ScaleUnit = "billion"
)

// DefaultScale 未检测到单位关键词时使用的单位
const DefaultScale = Crore

// 各单位对应的10的幂次
var scaleExponents = map[ScaleUnit]int32{
	Thousand: 3,
	Lakh:     5,
	Million:  6,
	Crore:    7,
	Billion:  9,
}

var scaleAliases = map[string]ScaleUnit{
	"thousand": Thousand, "thousands": Thousand, "000": Thousand, "'000": Thousand,
	"lakh": Lakh, "lakhs": Lakh, "lac": Lakh, "lacs": Lakh,
	"million": Million, "millions": Million, "mn": Million,
	"crore": Crore, "crores": Crore, "cr": Crore,
	"billion": Billion, "billions": Billion, "bn": Billion,
}

// 检测顺序与关键词，顺序决定优先级
var scaleDetectors = []struct {
	unit     ScaleUnit
	keywords []string
}{
	{Crore, []string{"crore", " cr.", "in cr ", "(cr)", "₹ cr"}},
	{Lakh, []string{"lakh", " lac ", " lacs", "(lacs)", "in lac"}},
	{Million, []string{"million", " mn ", "(mn)", "in mn"}},
	{Billion, []string{"billion", " bn ", "(bn)", "in bn"}},
	{Thousand, []string{"thousand", "'000", "in 000", "(000)"}},
}

// Multiplier 返回单位对应的乘数
func (u ScaleUnit) Multiplier() float64 {
	return decimal.New(1, u.exponent()).InexactFloat64()
}

// exponent 未知单位按默认单位处理
func (u ScaleUnit) exponent() int32 {
	if exp, ok := scaleExponents[u]; ok {
		return exp
	}
	return scaleExponents[DefaultScale]
}

// Valid 判断是否为已知单位
func (u ScaleUnit) Valid() bool {
	_, ok := scaleExponents[u]
	return ok
}

// ParseScale 根据名称或别名解析单位
func ParseScale(name string) (ScaleUnit, bool) {
	unit, ok := scaleAliases[strings.ToLower(strings.TrimSpace(name))]
	return unit, ok
}

// DetectScale 扫描文档文本中的单位关键词，默认返回crore
func DetectScale(text string) ScaleUnit {
	lower := " " + strings.ToLower(text) + " "
	for _, d := range scaleDetectors {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.unit
			}
		}
	}
	return DefaultScale
}

// ToAbsolute 将单位数值换算为绝对金额并四舍五入
func ToAbsolute(v float64, unit ScaleUnit) int64 {
	return decimal.NewFromFloat(v).Shift(unit.exponent()).Round(0).IntPart()
}
