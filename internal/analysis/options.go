package analysis

import (
	"github.com/fyerfyer/finsight/internal/extract"
	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/fyerfyer/finsight/internal/locator"
	"github.com/fyerfyer/finsight/internal/numeric"
	"github.com/fyerfyer/finsight/internal/summarizer"
	"github.com/sirupsen/logrus"
)

// Options 分析流水线的不可变配置
type Options struct {
	PreferFirstColumnLabels bool
	MaxSummarySentences     int
	MinSummaryChars         int
	DefaultLogicalPage      int
	TOCPages                int
	NarrativeTOCPages       int
	SearchSpan              int
	WindowSize              int
	NarrativePageOffset     int
	SanityCeiling           float64
	Keywords                *keywords.Table
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		PreferFirstColumnLabels: true,
		MaxSummarySentences:     summarizer.DefaultMaxSentences,
		MinSummaryChars:         summarizer.DefaultMinChars,
		DefaultLogicalPage:      99,
		TOCPages:                5,
		NarrativeTOCPages:       locator.DefaultNarrativeTOCPages,
		SearchSpan:              40,
		WindowSize:              12,
		NarrativePageOffset:     locator.DefaultPageOffset,
		SanityCeiling:           numeric.DefaultSanityCeiling,
	}
}

func (o Options) keywordTable() *keywords.Table {
	if o.Keywords != nil {
		return o.Keywords
	}
	return keywords.Default()
}

// PipelineOption 流水线配置选项
type PipelineOption func(*pipelineSettings)

type pipelineSettings struct {
	logger *logrus.Logger
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(s *pipelineSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(opts []PipelineOption) pipelineSettings {
	s := pipelineSettings{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (o Options) newSectionLocator(logger *logrus.Logger) *locator.SectionLocator {
	return locator.NewSectionLocator(o.keywordTable(),
		locator.WithLogger(logger),
		locator.WithTOCPages(o.TOCPages),
		locator.WithSearchSpan(o.SearchSpan),
		locator.WithWindowSize(o.WindowSize),
	)
}

func (o Options) newNarrativeLocator(logger *logrus.Logger) *locator.NarrativeLocator {
	return locator.NewNarrativeLocator(o.keywordTable(),
		locator.WithNarrativeLogger(logger),
		locator.WithNarrativeTOCPages(o.NarrativeTOCPages),
		locator.WithPageOffset(o.NarrativePageOffset),
	)
}

func (o Options) newExtractor(logger *logrus.Logger) *extract.Extractor {
	return extract.NewExtractor(o.keywordTable(),
		extract.WithLogger(logger),
		extract.WithPreferFirstColumnLabels(o.PreferFirstColumnLabels),
		extract.WithNormalizer(numeric.NewNormalizer(numeric.WithSanityCeiling(o.SanityCeiling))),
	)
}

func (o Options) newSummarizer(logger *logrus.Logger) *summarizer.Summarizer {
	return summarizer.New(
		summarizer.WithLogger(logger),
		summarizer.WithMaxSentences(o.MaxSummarySentences),
		summarizer.WithMinChars(o.MinSummaryChars),
	)
}
