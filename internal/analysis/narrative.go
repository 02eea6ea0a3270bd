package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/fyerfyer/finsight/internal/locator"
	"github.com/fyerfyer/finsight/internal/summarizer"
	"github.com/sirupsen/logrus"
)

const (
	// NarrativeSectionLabel 叙述章节名称
	NarrativeSectionLabel = "Management Discussion & Analysis"
	// MaxExcerptRunes 返回原文的最大长度
	MaxExcerptRunes = 25000
	// MaxTOCPreviewRunes 目录预览的最大长度
	MaxTOCPreviewRunes = 2500

	msgSectionNotFound = "MDA section not found in TOC"
	msgEmptyTOC        = "Could not extract TOC text"
)

// NarrativeResult 管理层讨论与分析摘要结果
type NarrativeResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Company        string `json:"company"`
	SectionLabel   string `json:"section_label,omitempty"`
	StartPage      int    `json:"start_page,omitempty"`
	EndPage        int    `json:"end_page,omitempty"`
	ExtractedChars int    `json:"extracted_chars"`
	Summary        string `json:"summary"`
	Excerpt        string `json:"narrative_text_excerpt"`
	TOCPreview     string `json:"toc_preview"`
}

// NarrativePipeline 管理层讨论与分析摘要流水线
type NarrativePipeline struct {
	locator    *locator.NarrativeLocator
	summarizer *summarizer.Summarizer
	logger     *logrus.Logger
}

// NewNarrativePipeline 创建叙述摘要流水线
func NewNarrativePipeline(opts Options, pipelineOpts ...PipelineOption) *NarrativePipeline {
	s := newSettings(pipelineOpts)
	return &NarrativePipeline{
		locator:    opts.newNarrativeLocator(s.logger),
		summarizer: opts.newSummarizer(s.logger),
		logger:     s.logger,
	}
}

// WithMaxSentences 返回使用指定摘要句子数的副本
func (p *NarrativePipeline) WithMaxSentences(k int) *NarrativePipeline {
	if k <= 0 || k == p.summarizer.MaxSentences() {
		return p
	}
	clone := *p
	clone.summarizer = p.summarizer.With(summarizer.WithMaxSentences(k))
	return &clone
}

// Run 定位叙述章节并生成摘要
// 找不到章节不是错误，返回Success为false的结果
func (p *NarrativePipeline) Run(in *Input) (*NarrativeResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	result := &NarrativeResult{Company: CompanyFromFileName(in.FileName)}

	toc := p.locator.TOCText(in.Pages)
	result.TOCPreview = truncateRunes(toc, MaxTOCPreviewRunes)
	if strings.TrimSpace(toc) == "" {
		result.Message = msgEmptyTOC
		return result, nil
	}

	section, ok := p.locator.Locate(toc, in.TotalPages)
	if !ok {
		p.logger.WithField("file", in.FileName).Info("Narrative section not found in TOC")
		result.Message = msgSectionNotFound
		return result, nil
	}

	text := p.locator.ExtractText(in.Pages, section)
	cleaned := summarizer.CleanText(text)

	result.Success = true
	result.SectionLabel = NarrativeSectionLabel
	result.StartPage = section.Start
	result.EndPage = section.End
	result.ExtractedChars = utf8.RuneCountInString(text)
	result.Summary = p.summarizer.Summarize(cleaned)
	result.Excerpt = truncateRunes(text, MaxExcerptRunes)

	p.logger.WithFields(logrus.Fields{
		"file":  in.FileName,
		"start": section.Start,
		"end":   section.End,
		"chars": result.ExtractedChars,
	}).Info("Narrative summary completed")

	return result, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
