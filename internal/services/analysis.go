package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/cache"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/models"
	"github.com/fyerfyer/finsight/internal/report"
	"github.com/fyerfyer/finsight/internal/repository"
	"github.com/fyerfyer/finsight/pkg/storage"
	"github.com/fyerfyer/finsight/pkg/taskqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ErrAsyncDisabled 未配置任务队列
var ErrAsyncDisabled = errors.New("asynchronous analysis is not enabled")

// DefaultAnalysisTimeout 单次分析的默认超时时间
const DefaultAnalysisTimeout = 2 * time.Minute

// AnalysisService 分析服务
// 负责读取已上传的文件、执行分析流水线并保存结果
type AnalysisService struct {
	files     repository.FileRepository
	analyses  repository.AnalysisRepository
	storage   storage.Storage
	status    *FileStatusManager
	options   analysis.Options
	financial *analysis.FinancialPipeline
	narrative *analysis.NarrativePipeline
	results   *cache.ResultCache
	queue     taskqueue.Queue
	timeout   time.Duration
	logger    *logrus.Logger
}

// AnalysisOption 分析服务配置选项
type AnalysisOption func(*AnalysisService)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResultCache 设置结果缓存
func WithResultCache(results *cache.ResultCache) AnalysisOption {
	return func(s *AnalysisService) {
		s.results = results
	}
}

// WithTaskQueue 设置任务队列，启用异步分析
func WithTaskQueue(q taskqueue.Queue) AnalysisOption {
	return func(s *AnalysisService) {
		s.queue = q
	}
}

// WithTimeout 设置单次分析超时时间
func WithTimeout(timeout time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithAnalysisOptions 设置分析流水线配置
func WithAnalysisOptions(opts analysis.Options) AnalysisOption {
	return func(s *AnalysisService) {
		s.options = opts
	}
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(
	store storage.Storage,
	files repository.FileRepository,
	analyses repository.AnalysisRepository,
	opts ...AnalysisOption,
) *AnalysisService {
	s := &AnalysisService{
		files:    files,
		analyses: analyses,
		storage:  store,
		options:  analysis.DefaultOptions(),
		timeout:  DefaultAnalysisTimeout,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.status = NewFileStatusManager(files, s.logger)
	s.financial = analysis.NewFinancialPipeline(s.options, analysis.WithLogger(s.logger))
	s.narrative = analysis.NewNarrativePipeline(s.options, analysis.WithLogger(s.logger))
	return s
}

// AsyncEnabled 是否支持异步分析
func (s *AnalysisService) AsyncEnabled() bool {
	return s.queue != nil
}

// Financial 同步执行财务报表分析
func (s *AnalysisService) Financial(ctx context.Context, fileID string) (*analysis.FinancialResult, error) {
	key := cache.ResultKey(fileID, string(models.KindFinancial), "")
	var cached analysis.FinancialResult
	if s.loadCached(key, &cached) {
		return &cached, nil
	}

	record, err := s.createRecord(fileID, models.KindFinancial, nil, models.AnalysisRunning)
	if err != nil {
		return nil, err
	}

	result, err := s.runFinancial(ctx, record)
	if err != nil {
		return nil, err
	}
	s.storeCached(key, result)
	return result, nil
}

// Narrative 同步执行管理层讨论摘要，sentences不大于0时使用默认句子数
func (s *AnalysisService) Narrative(ctx context.Context, fileID string, sentences int) (*analysis.NarrativeResult, error) {
	sentences = s.sentences(sentences)
	key := cache.ResultKey(fileID, string(models.KindNarrative), strconv.Itoa(sentences))
	var cached analysis.NarrativeResult
	if s.loadCached(key, &cached) {
		return &cached, nil
	}

	record, err := s.createRecord(fileID, models.KindNarrative, narrativeParams{MaxSentences: sentences}, models.AnalysisRunning)
	if err != nil {
		return nil, err
	}

	result, err := s.runNarrative(ctx, record, sentences)
	if err != nil {
		return nil, err
	}
	s.storeCached(key, result)
	return result, nil
}

// LatestFinancial 返回最近一次的财务分析结果，没有时重新分析
func (s *AnalysisService) LatestFinancial(ctx context.Context, fileID string) (*analysis.FinancialResult, error) {
	key := cache.ResultKey(fileID, string(models.KindFinancial), "")
	var result analysis.FinancialResult
	if s.loadCached(key, &result) {
		return &result, nil
	}

	record, err := s.analyses.Latest(fileID, models.KindFinancial)
	switch {
	case err == nil && len(record.Result) > 0:
		if err := json.Unmarshal(record.Result, &result); err == nil {
			s.storeCached(key, &result)
			return &result, nil
		}
		s.logger.WithField("analysis_id", record.ID).Warn("Stored financial result is unreadable, re-running analysis")
	case err != nil && !errors.Is(err, models.ErrAnalysisNotFound):
		return nil, err
	}

	return s.Financial(ctx, fileID)
}

// Report 生成指定格式的分析报告
// 管理层讨论摘要失败时报告中不包含该部分
func (s *AnalysisService) Report(ctx context.Context, fileID string, format report.Format) ([]byte, error) {
	fin, err := s.LatestFinancial(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var narrative *analysis.NarrativeResult
	if format != report.XLSX {
		narrative, err = s.Narrative(ctx, fileID, 0)
		if err != nil {
			s.logger.WithError(err).WithField("file_id", fileID).Warn("Narrative summary unavailable for report")
			narrative = nil
		}
	}

	return report.Render(format, fin, narrative)
}

// History 列出文件的全部分析记录
func (s *AnalysisService) History(ctx context.Context, fileID string) ([]*models.AnalysisRecord, error) {
	if _, err := s.files.GetByID(fileID); err != nil {
		return nil, err
	}
	return s.analyses.ListByFile(fileID)
}

// SubmitFinancial 提交异步财务分析任务，返回分析记录
func (s *AnalysisService) SubmitFinancial(ctx context.Context, fileID string) (*models.AnalysisRecord, error) {
	return s.submit(ctx, fileID, models.KindFinancial, taskqueue.TaskFinancialAnalysis, 0)
}

// SubmitNarrative 提交异步管理层讨论摘要任务
func (s *AnalysisService) SubmitNarrative(ctx context.Context, fileID string, sentences int) (*models.AnalysisRecord, error) {
	return s.submit(ctx, fileID, models.KindNarrative, taskqueue.TaskNarrativeSummary, s.sentences(sentences))
}

// TaskStatus 查询异步任务状态
func (s *AnalysisService) TaskStatus(ctx context.Context, taskID string) (*taskqueue.TaskInfo, error) {
	if s.queue == nil {
		return nil, ErrAsyncDisabled
	}
	task, err := s.queue.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return taskqueue.NewTaskInfo(task), nil
}

// RegisterHandlers 向工作者注册分析任务处理器
func (s *AnalysisService) RegisterHandlers(w taskqueue.Worker) {
	handler := taskqueue.HandlerFunc(s.handleTask)
	w.RegisterHandler(taskqueue.TaskFinancialAnalysis, handler)
	w.RegisterHandler(taskqueue.TaskNarrativeSummary, handler)
}

type narrativeParams struct {
	MaxSentences int `json:"max_sentences"`
}

func (s *AnalysisService) submit(ctx context.Context, fileID string, kind models.AnalysisKind, taskType taskqueue.TaskType, sentences int) (*models.AnalysisRecord, error) {
	if s.queue == nil {
		return nil, ErrAsyncDisabled
	}

	var params interface{}
	if kind == models.KindNarrative {
		params = narrativeParams{MaxSentences: sentences}
	}
	record, err := s.createRecord(fileID, kind, params, models.AnalysisPending)
	if err != nil {
		return nil, err
	}

	taskID, err := s.queue.Enqueue(ctx, taskType, fileID, taskqueue.AnalysisPayload{
		FileID:       fileID,
		AnalysisID:   record.ID,
		MaxSentences: sentences,
	})
	if err != nil {
		s.fail(record, err)
		return nil, fmt.Errorf("failed to enqueue analysis: %w", err)
	}

	record.TaskID = taskID
	if err := s.analyses.Update(record); err != nil {
		return nil, fmt.Errorf("failed to save task id: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":     fileID,
		"analysis_id": record.ID,
		"task_id":     taskID,
		"kind":        kind,
	}).Info("Analysis task submitted")
	return record, nil
}

// handleTask 处理队列中的分析任务
func (s *AnalysisService) handleTask(ctx context.Context, task *taskqueue.Task) (interface{}, error) {
	var payload taskqueue.AnalysisPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return nil, err
	}

	record, err := s.analyses.GetByID(payload.AnalysisID)
	if err != nil {
		return nil, err
	}
	record.Status = models.AnalysisRunning
	if err := s.analyses.Update(record); err != nil {
		return nil, fmt.Errorf("failed to update analysis: %w", err)
	}

	out := &taskqueue.AnalysisResult{AnalysisID: record.ID, Success: true}
	switch record.Kind {
	case models.KindFinancial:
		result, err := s.runFinancial(ctx, record)
		if err != nil {
			return nil, err
		}
		s.storeCached(cache.ResultKey(record.FileID, string(record.Kind), ""), result)
		out.Company = result.Company
	case models.KindNarrative:
		sentences := s.sentences(payload.MaxSentences)
		result, err := s.runNarrative(ctx, record, sentences)
		if err != nil {
			return nil, err
		}
		s.storeCached(cache.ResultKey(record.FileID, string(record.Kind), strconv.Itoa(sentences)), result)
		out.Company = result.Company
		out.Success = result.Success
		out.Message = result.Message
	default:
		return nil, fmt.Errorf("unknown analysis kind: %s", record.Kind)
	}
	return out, nil
}

func (s *AnalysisService) runFinancial(ctx context.Context, record *models.AnalysisRecord) (*analysis.FinancialResult, error) {
	var result *analysis.FinancialResult
	err := s.execute(ctx, record, func(in *analysis.Input) (interface{}, error) {
		var err error
		result, err = s.financial.Run(in)
		return result, err
	})
	return result, err
}

func (s *AnalysisService) runNarrative(ctx context.Context, record *models.AnalysisRecord, sentences int) (*analysis.NarrativeResult, error) {
	pipeline := s.narrative.WithMaxSentences(sentences)
	var result *analysis.NarrativeResult
	err := s.execute(ctx, record, func(in *analysis.Input) (interface{}, error) {
		var err error
		result, err = pipeline.Run(in)
		return result, err
	})
	return result, err
}

// execute 读取文件、运行流水线并保存分析记录
func (s *AnalysisService) execute(ctx context.Context, record *models.AnalysisRecord, run func(*analysis.Input) (interface{}, error)) error {
	start := time.Now()
	_ = s.status.MarkProcessing(record.FileID)

	in, err := s.loadInput(ctx, record.FileID)
	if err != nil {
		s.fail(record, err)
		return err
	}

	result, err := run(in)
	if err != nil {
		s.fail(record, err)
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.fail(record, err)
		return fmt.Errorf("failed to encode result: %w", err)
	}

	record.Status = models.AnalysisCompleted
	record.Result = datatypes.JSON(data)
	record.Error = ""
	if err := s.analyses.Update(record); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	_ = s.status.MarkCompleted(record.FileID)

	s.logger.WithFields(logrus.Fields{
		"file_id":     record.FileID,
		"analysis_id": record.ID,
		"kind":        record.Kind,
		"duration":    time.Since(start).String(),
	}).Info("Analysis completed")
	return nil
}

// loadInput 读取存储的文件并提取页面和表格
func (s *AnalysisService) loadInput(ctx context.Context, fileID string) (*analysis.Input, error) {
	file, err := s.files.GetByID(fileID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rc, err := s.storage.Get(ctx, file.StoredAs)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	extractor, err := document.ExtractorFor(file.Name)
	if err != nil {
		return nil, err
	}
	ex, err := extractor.Extract(ctx, bytes.NewReader(data), int64(len(data)), file.Name)
	if err != nil {
		return nil, err
	}

	if file.TotalPages != ex.TotalPages {
		if err := s.files.SetTotalPages(fileID, ex.TotalPages); err != nil {
			s.logger.WithError(err).WithField("file_id", fileID).Warn("Failed to record page count")
		}
	}
	return analysis.InputFrom(ex, file.Name), nil
}

func (s *AnalysisService) createRecord(fileID string, kind models.AnalysisKind, params interface{}, status models.AnalysisStatus) (*models.AnalysisRecord, error) {
	if _, err := s.files.GetByID(fileID); err != nil {
		return nil, err
	}

	record := &models.AnalysisRecord{
		ID:     uuid.New().String(),
		FileID: fileID,
		Kind:   kind,
		Status: status,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params: %w", err)
		}
		record.Params = datatypes.JSON(data)
	}
	if err := s.analyses.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create analysis record: %w", err)
	}
	return record, nil
}

func (s *AnalysisService) fail(record *models.AnalysisRecord, cause error) {
	record.Status = models.AnalysisFailed
	record.Error = cause.Error()
	if err := s.analyses.Update(record); err != nil {
		s.logger.WithError(err).WithField("analysis_id", record.ID).Error("Failed to save failed analysis")
	}
	_ = s.status.MarkFailed(record.FileID, cause)

	s.logger.WithError(cause).WithFields(logrus.Fields{
		"file_id":     record.FileID,
		"analysis_id": record.ID,
		"kind":        record.Kind,
	}).Warn("Analysis failed")
}

func (s *AnalysisService) sentences(k int) int {
	if k > 0 {
		return k
	}
	if s.options.MaxSummarySentences > 0 {
		return s.options.MaxSummarySentences
	}
	return analysis.DefaultOptions().MaxSummarySentences
}

func (s *AnalysisService) loadCached(key string, out interface{}) bool {
	if s.results == nil {
		return false
	}
	found, err := s.results.Load(key, out)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to read cached result")
		return false
	}
	return found
}

func (s *AnalysisService) storeCached(key string, value interface{}) {
	if s.results == nil {
		return
	}
	if err := s.results.Store(key, value); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to cache result")
	}
}
