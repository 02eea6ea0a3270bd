package document

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitterConfig 分句器配置
type SplitterConfig struct {
	MinLength    int // 句子最小字符数，更短的片段直接丢弃
	MaxSentences int // 最大句子数量（0表示不限制）
}

// DefaultSplitterConfig 返回默认分句器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		MinLength:    20,
		MaxSentences: 0,
	}
}

// SentenceSplitter 按句末标点分句
type SentenceSplitter struct {
	config SplitterConfig
}

// NewSentenceSplitter 创建分句器
func NewSentenceSplitter(config SplitterConfig) *SentenceSplitter {
	return &SentenceSplitter{
		config: config,
	}
}

// 句子分隔符
var sentenceDelimiters = map[rune]bool{'.': true, '!': true, '?': true}

// Split 将文本分割为句子
// 分隔符后必须是空白或文本结尾，避免把小数点和缩写切开
func (s *SentenceSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, char := range runes {
		current.WriteRune(char)

		if !sentenceDelimiters[char] {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}

		sentences = s.appendSentence(sentences, current.String())
		current.Reset()
	}

	// 处理最后一个可能不以分隔符结束的句子
	sentences = s.appendSentence(sentences, current.String())

	if s.config.MaxSentences > 0 && len(sentences) > s.config.MaxSentences {
		sentences = sentences[:s.config.MaxSentences]
	}
	return sentences
}

func (s *SentenceSplitter) appendSentence(sentences []string, raw string) []string {
	sentence := strings.TrimSpace(raw)
	if sentence == "" || utf8.RuneCountInString(sentence) < s.config.MinLength {
		return sentences
	}
	return append(sentences, sentence)
}

// SplitParagraphs 按空行分段
func SplitParagraphs(text string) []string {
	// 规范化段落分隔符
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
