package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fyerfyer/finsight/api/handler"
	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/api/model"
	"github.com/fyerfyer/finsight/internal/cache"
	"github.com/fyerfyer/finsight/internal/database"
	"github.com/fyerfyer/finsight/internal/repository"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/fyerfyer/finsight/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const prospectusText = "TABLE OF CONTENTS\nRisk Factors ..... 1\nSummary of financial information ..... 2\nOur Business ..... 3\f" +
	"SUMMARY BALANCE SHEET\n(Rs. in crore)\n" +
	"Particulars    FY2024    FY2023\n" +
	"Total Assets    1,000    900\n" +
	"Total Equity    600    550\n" +
	"Total Liabilities    400    350\f" +
	"Our business is the manufacture of industrial pumps."

// setupRouter 创建使用内存数据库和临时目录的路由
func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := middleware.GetLogger()
	log.SetOutput(io.Discard)

	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	c, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	results := cache.NewResultCache(c, time.Hour)

	files := repository.NewFileRepositoryWithDB(db)
	analyses := repository.NewAnalysisRepositoryWithDB(db)

	fileSvc := services.NewFileService(store, files,
		services.WithFileLogger(log),
		services.WithFileResultCache(results),
		services.WithMaxUploadSize(1<<20),
	)
	analysisSvc := services.NewAnalysisService(store, files, analyses,
		services.WithLogger(log),
		services.WithResultCache(results),
	)

	return SetupRouter(Handlers{
		Files:    handler.NewFileHandler(fileSvc),
		Analysis: handler.NewAnalysisHandler(analysisSvc, fileSvc),
		Tasks:    handler.NewTaskHandler(analysisSvc),
	})
}

// uploadRequest 构造multipart上传请求
func uploadRequest(t *testing.T, filename, content string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) model.Response {
	resp := model.Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func upload(t *testing.T, router *gin.Engine, filename, content string) model.FileInfo {
	w := serve(router, uploadRequest(t, filename, content))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info model.FileInfo
	resp := decode(t, w, &info)
	require.Equal(t, 0, resp.Code)
	return info
}

func TestHealth(t *testing.T) {
	router := setupRouter(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestFileLifecycle(t *testing.T) {
	router := setupRouter(t)

	info := upload(t, router, "Acme_Industries_DRHP.txt", prospectusText)
	assert.NotEmpty(t, info.FileID)
	assert.Equal(t, "Acme Industries Drhp", info.Company)
	assert.Equal(t, "uploaded", info.Status)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got model.FileInfo
	decode(t, w, &got)
	assert.Equal(t, info.FileName, got.FileName)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files?page=1&page_size=5&status=uploaded", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list model.FileListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 5, list.PageSize)
	require.Len(t, list.Files, 1)

	w = serve(router, httptest.NewRequest(http.MethodDelete, "/api/files/"+info.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NotEmpty(t, resp.TraceID)
}

func TestUploadValidation(t *testing.T) {
	router := setupRouter(t)

	w := serve(router, uploadRequest(t, "sheet.xlsx", "data"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少文件字段
	req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
	w = serve(router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := bytes.Repeat([]byte("a"), 1<<20+1)
	w = serve(router, uploadRequest(t, "big.txt", string(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files?status=archived", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinancialAnalysis(t *testing.T) {
	router := setupRouter(t)
	info := upload(t, router, "Acme_Industries_DRHP.txt", prospectusText)

	w := serve(router, httptest.NewRequest(http.MethodPost, "/api/files/"+info.FileID+"/analysis", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result map[string]interface{}
	decode(t, w, &result)
	assert.Equal(t, "Acme Industries Drhp", result["company"])
	kpis, ok := result["important_kpis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1000.0, kpis["total_assets"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/analyses", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]interface{}
	decode(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "completed", records[0]["status"])

	w = serve(router, httptest.NewRequest(http.MethodPost, "/api/files/missing/analysis", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalysisUnprocessable(t *testing.T) {
	router := setupRouter(t)
	info := upload(t, router, "blank.txt", " \n\f \n")

	w := serve(router, httptest.NewRequest(http.MethodPost, "/api/files/"+info.FileID+"/analysis", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID, nil))
	var got model.FileInfo
	decode(t, w, &got)
	assert.Equal(t, "failed", got.Status)
}

func TestSummary(t *testing.T) {
	router := setupRouter(t)
	info := upload(t, router, "Acme_Industries_DRHP.txt", prospectusText)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/summary?sentences=3", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result map[string]interface{}
	decode(t, w, &result)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "MDA section not found in TOC", result["message"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/summary?sentences=0", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/summary?sentences=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReport(t *testing.T) {
	router := setupRouter(t)
	info := upload(t, router, "Acme_Industries_DRHP.txt", prospectusText)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), info.FileID+"-report.md")
	assert.Contains(t, w.Body.String(), "Acme Industries Drhp")

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/report?format=html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html")

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/report?format=xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PK", w.Body.String()[:2])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/"+info.FileID+"/report?format=doc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/files/missing/report", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAsyncDisabled(t *testing.T) {
	router := setupRouter(t)
	info := upload(t, router, "acme.txt", prospectusText)

	w := serve(router, httptest.NewRequest(http.MethodPost, "/api/files/"+info.FileID+"/analysis?async=true", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, "asynchronous analysis is not enabled", resp.Message)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/tasks/some-task", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
