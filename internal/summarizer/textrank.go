package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fyerfyer/finsight/internal/document"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxSentences 默认摘要句子数
	DefaultMaxSentences = 8
	// DefaultMinChars 短于此长度的文本不做摘要
	DefaultMinChars = 500
	// DefaultDamping 阻尼系数
	DefaultDamping = 0.85
	// DefaultEpsilon 收敛阈值
	DefaultEpsilon = 1e-4
	// DefaultMaxIterations 迭代次数上限
	DefaultMaxIterations = 100
)

var (
	wordRe       = regexp.MustCompile(`[a-z]{3,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	// 换行断开的连字符单词
	brokenHyphenRe = regexp.MustCompile(`(\w)- (\w)`)
)

// Summarizer 基于句子相似度图的抽取式摘要
type Summarizer struct {
	maxSentences  int
	minChars      int
	damping       float64
	epsilon       float64
	maxIterations int
	splitter      *document.SentenceSplitter
	logger        *logrus.Logger
}

// Option 摘要器配置选项
type Option func(*Summarizer)

// WithMaxSentences 设置摘要句子数
func WithMaxSentences(k int) Option {
	return func(s *Summarizer) {
		if k > 0 {
			s.maxSentences = k
		}
	}
}

// WithMinChars 设置最小文本长度
func WithMinChars(n int) Option {
	return func(s *Summarizer) {
		if n >= 0 {
			s.minChars = n
		}
	}
}

// WithDamping 设置阻尼系数
func WithDamping(d float64) Option {
	return func(s *Summarizer) {
		if d > 0 && d < 1 {
			s.damping = d
		}
	}
}

// WithEpsilon 设置收敛阈值
func WithEpsilon(eps float64) Option {
	return func(s *Summarizer) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// WithMaxIterations 设置迭代次数上限
func WithMaxIterations(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New 创建摘要器
func New(opts ...Option) *Summarizer {
	s := &Summarizer{
		maxSentences:  DefaultMaxSentences,
		minChars:      DefaultMinChars,
		damping:       DefaultDamping,
		epsilon:       DefaultEpsilon,
		maxIterations: DefaultMaxIterations,
		splitter:      document.NewSentenceSplitter(document.DefaultSplitterConfig()),
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// With 返回应用了额外选项的副本
func (s *Summarizer) With(opts ...Option) *Summarizer {
	clone := *s
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// MaxSentences 摘要句子数
func (s *Summarizer) MaxSentences() int {
	return s.maxSentences
}

// Summarize 返回摘要文本
// 文本过短或句子数不超过K时原样返回
func (s *Summarizer) Summarize(text string) string {
	if len(strings.TrimSpace(text)) < s.minChars {
		return text
	}

	sentences := s.splitter.Split(CleanText(text))
	if len(sentences) <= s.maxSentences {
		return text
	}

	scores, iterations := s.rank(sentences)

	indices := make([]int, len(sentences))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	top := indices[:s.maxSentences]
	sort.Ints(top)

	selected := make([]string, len(top))
	for i, idx := range top {
		selected[i] = sentences[idx]
	}

	s.logger.WithFields(logrus.Fields{
		"sentences":  len(sentences),
		"selected":   len(selected),
		"iterations": iterations,
	}).Debug("Summarized text")

	return strings.Join(selected, " ")
}

// rank 幂迭代计算句子得分，返回得分和迭代次数
func (s *Summarizer) rank(sentences []string) ([]float64, int) {
	n := len(sentences)
	m := SimilarityMatrix(sentences)

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / float64(n)
	}

	base := (1 - s.damping) / float64(n)
	iterations := 0
	for iterations < s.maxIterations {
		iterations++

		next := make([]float64, n)
		for j := 0; j < n; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += m[i][j] * scores[i]
			}
			next[j] = base + s.damping*sum
		}

		delta := 0.0
		for i := range next {
			delta += math.Abs(next[i] - scores[i])
		}
		scores = next
		if delta < s.epsilon {
			break
		}
	}
	return scores, iterations
}

// SimilarityMatrix 构建行归一化的句子相似度矩阵，对角线为0
func SimilarityMatrix(sentences []string) [][]float64 {
	n := len(sentences)
	vectors := make([]map[string]float64, n)
	for i, sentence := range sentences {
		vectors[i] = termFrequencies(sentence)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := cosine(vectors[i], vectors[j])
			m[i][j] = sim
			m[j][i] = sim
		}
	}

	// 全零行保持为零
	for i := range m {
		sum := 0.0
		for _, v := range m[i] {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for j := range m[i] {
			m[i][j] /= sum
		}
	}
	return m
}

// Tokenize 小写后提取长度不小于3的字母单词
func Tokenize(sentence string) []string {
	return wordRe.FindAllString(strings.ToLower(sentence), -1)
}

// CleanText 合并空白并修复换行断开的连字符单词
func CleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = brokenHyphenRe.ReplaceAllString(text, "$1$2")
	return strings.TrimSpace(text)
}

func termFrequencies(sentence string) map[string]float64 {
	freq := make(map[string]float64)
	for _, w := range Tokenize(sentence) {
		freq[w]++
	}
	return freq
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dot := 0.0
	for w, x := range a {
		dot += x * b[w]
	}
	norm := math.Sqrt(squaredNorm(a)) * math.Sqrt(squaredNorm(b))
	if norm == 0 {
		return 0
	}
	return dot / norm
}

func squaredNorm(v map[string]float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return sum
}
