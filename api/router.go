package api

import (
	"net/http"

	"github.com/fyerfyer/finsight/api/handler"
	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/api/model"
	"github.com/gin-gonic/gin"
)

// Handlers 路由使用的处理器集合
type Handlers struct {
	Files    *handler.FileHandler
	Analysis *handler.AnalysisHandler
	Tasks    *handler.TaskHandler
}

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(h Handlers) *gin.Engine {
	model.RegisterValidators()

	router := gin.New()

	// 应用全局中间件，追踪ID需要最先设置
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(Cors())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	api := router.Group("/api")
	{
		// 文件管理API
		files := api.Group("/files")
		{
			// 上传文件 - POST /api/files
			files.POST("", h.Files.UploadFile)

			// 获取文件列表 - GET /api/files
			files.GET("", h.Files.ListFiles)

			// 获取文件信息 - GET /api/files/:id
			files.GET("/:id", h.Files.GetFile)

			// 删除文件 - DELETE /api/files/:id
			files.DELETE("/:id", h.Files.DeleteFile)

			// 财务报表分析 - POST /api/files/:id/analysis
			files.POST("/:id/analysis", h.Analysis.Analyze)

			// 分析记录 - GET /api/files/:id/analyses
			files.GET("/:id/analyses", h.Analysis.History)

			// 管理层讨论摘要 - GET /api/files/:id/summary
			files.GET("/:id/summary", h.Analysis.Summary)

			// 导出报告 - GET /api/files/:id/report
			files.GET("/:id/report", h.Analysis.Report)
		}

		// 任务状态 - GET /api/tasks/:id
		api.GET("/tasks/:id", h.Tasks.GetTaskStatus)

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Trace-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
