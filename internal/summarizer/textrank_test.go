package summarizer

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSummarizer(opts ...Option) *Summarizer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

// narrative 构造一段管理层讨论文本
func narrative() (string, []string) {
	sentences := []string{
		"Revenue from operations increased by eighteen percent driven by strong retail demand.",
		"The board approved a new manufacturing facility in the western region.",
		"Retail demand for consumer products remained strong across all regions.",
		"Employee costs rose modestly as the company expanded its sales network.",
		"Operating margins improved because retail demand absorbed fixed costs.",
		"Finance costs declined after the company repaid part of its term loans.",
		"The company expects retail demand and revenue growth to continue next year.",
		"Inventory levels were kept in line with the expected sales volumes.",
		"Capital expenditure was funded entirely from internal accruals during the year.",
		"Management believes revenue from retail operations will remain the main growth driver.",
		"Foreign exchange movements had a limited impact on reported earnings.",
		"Working capital cycles shortened as receivables were collected faster.",
	}
	return strings.Join(sentences, " "), sentences
}

func TestSummarizeShortTextPassThrough(t *testing.T) {
	s := newTestSummarizer()

	text := "Revenue grew. Profit grew too. Costs were flat."
	assert.Equal(t, text, s.Summarize(text))
	assert.Equal(t, "", s.Summarize(""))
}

func TestSummarizeMinCharsThreshold(t *testing.T) {
	_, sentences := narrative()
	text := strings.Join(sentences[:6], " ")
	require.Less(t, len(text), DefaultMinChars)

	// 默认阈值下不足500字符的文本原样返回
	s := newTestSummarizer(WithMaxSentences(3))
	assert.Equal(t, text, s.Summarize(text))

	s = newTestSummarizer(WithMaxSentences(3), WithMinChars(200))
	assert.NotEqual(t, text, s.Summarize(text))
}

func TestSummarizeFewSentencesPassThrough(t *testing.T) {
	s := newTestSummarizer(WithMinChars(10))

	text := "Revenue from operations increased sharply this year. Operating margins improved across every business segment."
	assert.Equal(t, text, s.Summarize(text))
}

func TestSummarizeKeepsSourceOrder(t *testing.T) {
	s := newTestSummarizer(WithMaxSentences(4))
	text, sentences := narrative()

	summary := s.Summarize(text)
	require.NotEqual(t, text, summary)

	// 摘要中的句子按原文顺序出现
	last := -1
	count := 0
	for i, sentence := range sentences {
		pos := strings.Index(summary, sentence)
		if pos < 0 {
			continue
		}
		count++
		assert.Greater(t, pos, last, "sentence %d out of order", i)
		last = pos
	}
	assert.Equal(t, 4, count)
	assert.LessOrEqual(t, count, s.MaxSentences())
}

func TestSummarizeFavorsCentralSentences(t *testing.T) {
	s := newTestSummarizer(WithMaxSentences(3))
	text, _ := narrative()

	summary := s.Summarize(text)
	assert.Contains(t, summary, "retail demand")
}

func TestSummarizeConverges(t *testing.T) {
	_, sentences := narrative()

	s := newTestSummarizer()
	scores, iterations := s.rank(sentences)
	require.Len(t, scores, len(sentences))
	assert.Less(t, iterations, DefaultMaxIterations)

	// 迭代上限生效
	s = newTestSummarizer(WithMaxIterations(2), WithEpsilon(1e-12))
	_, iterations = s.rank(sentences)
	assert.Equal(t, 2, iterations)
}

func TestSimilarityMatrix(t *testing.T) {
	m := SimilarityMatrix([]string{
		"revenue growth was strong",
		"revenue growth remained strong",
		"xyz qq",
	})
	require.Len(t, m, 3)

	for i := range m {
		assert.Equal(t, 0.0, m[i][i])
	}
	// 与其他句子没有共同词的行全为零
	assert.Equal(t, []float64{0, 0, 0}, m[2])

	sum := 0.0
	for _, v := range m[0] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "board", "approved", "dividend"}, Tokenize("The Board approved a 10% dividend"))
	assert.Empty(t, Tokenize("12 34 a b"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "the company's manufacturing unit", CleanText("the company's manu- facturing\n\n  unit "))
}
