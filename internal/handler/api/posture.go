package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"VolPosture/internal/domain/models"
	domrepo "VolPosture/internal/domain/repository"
	"VolPosture/internal/service/tasks"
	"VolPosture/internal/usecase"
	xhttp "VolPosture/pkg/http"
	xlogger "VolPosture/pkg/logger"
)

// PostureHandler exposes the scoring pipeline over HTTP.
type PostureHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	records  *usecase.RecordsUseCase
	tasks    *tasks.Manager
	repo     domrepo.RecordsRepository
	ivTerms  domrepo.IVTermsProvider
	deltaOI  domrepo.DeltaOIProvider
	upgrader websocket.Upgrader
}

func NewPostureHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	records *usecase.RecordsUseCase,
	taskMgr *tasks.Manager,
	repo domrepo.RecordsRepository,
	ivTerms domrepo.IVTermsProvider,
	deltaOI domrepo.DeltaOIProvider,
) *PostureHandler {
	return &PostureHandler{
		logger:   logger,
		analyzer: analyzer,
		records:  records,
		tasks:    taskMgr,
		repo:     repo,
		ivTerms:  ivTerms,
		deltaOI:  deltaOI,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *PostureHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/batch", h.AnalyzeBatch)
	g.GET("/records", h.ListRecords)
	g.GET("/records/symbols", h.Symbols)
	g.GET("/records/dates", h.Dates)
	g.GET("/records/:symbol", h.BySymbol)
	g.GET("/records/:symbol/latest", h.Latest)
	g.GET("/history/:symbol", h.HistoryScores)
	g.POST("/fetch/iv-terms", h.FetchIVTerms)
	g.POST("/fetch/delta-oi", h.FetchDeltaOI)
	g.GET("/tasks", h.ListTasks)
	g.GET("/tasks/:id", h.GetTask)
	g.GET("/ws/tasks/:id", h.TaskProgress)
}

func (h *PostureHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	persist := req.Persist == nil || *req.Persist

	res, err := h.analyzer.AnalyzeRaw(c.Request().Context(), req.Record, req.Options, persist)
	if err != nil {
		h.logger.Error("analyze failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PostureHandler) AnalyzeBatch(c echo.Context) error {
	req := &models.BatchAnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async {
		task := h.tasks.Create("analyze_batch", symbolsOf(req.Records), len(req.Records))
		h.tasks.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
			return h.analyzer.AnalyzeBatch(ctx, req.Records, req.Options, true, progress)
		})
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"task_id": task.ID})
	}

	resp, err := h.analyzer.AnalyzeBatch(c.Request().Context(), req.Records, req.Options, true, nil)
	if err != nil {
		h.logger.Error("batch analyze failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *PostureHandler) ListRecords(c echo.Context) error {
	req := &models.ListRecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rs, err := h.records.List(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("list records failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rs, int64(len(rs)))
}

func (h *PostureHandler) BySymbol(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 30)
	rs, err := h.records.BySymbol(c.Request().Context(), c.Param("symbol"), limit)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rs, int64(len(rs)))
}

func (h *PostureHandler) Latest(c echo.Context) error {
	res, err := h.records.Latest(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"symbol": c.Param("symbol")})
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PostureHandler) HistoryScores(c echo.Context) error {
	req := &models.HistoryScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	scores, err := h.records.HistoryScores(c.Request().Context(), *req)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"symbol": req.Symbol,
		"days":   req.Days,
		"scores": scores,
	})
}

func (h *PostureHandler) Symbols(c echo.Context) error {
	out, err := h.records.Symbols(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *PostureHandler) Dates(c echo.Context) error {
	out, err := h.records.Dates(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// FetchIVTerms launches a bulk IV-terms fetch as a background task.
func (h *PostureHandler) FetchIVTerms(c echo.Context) error {
	req := &models.FetchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	task := h.tasks.Create("fetch_iv_terms", req.Symbols, len(req.Symbols))
	h.tasks.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		return h.ivTerms.FetchIVTerms(ctx, req.Symbols, progress)
	})
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"task_id": task.ID})
}

// FetchDeltaOI launches a bulk delta-OI fetch as a background task.
func (h *PostureHandler) FetchDeltaOI(c echo.Context) error {
	req := &models.FetchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	task := h.tasks.Create("fetch_delta_oi", req.Symbols, len(req.Symbols))
	h.tasks.Run(task.ID, func(ctx context.Context, progress func(done, total int)) (any, error) {
		return h.deltaOI.FetchDeltaOI(ctx, req.Symbols, progress)
	})
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"task_id": task.ID})
}

func (h *PostureHandler) ListTasks(c echo.Context) error {
	list := h.tasks.List()
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *PostureHandler) GetTask(c echo.Context) error {
	t := h.tasks.Get(c.Param("id"))
	if t == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"task_id": c.Param("id")})
	}
	return xhttp.SuccessResponse(c, t)
}

// TaskProgress streams task snapshots over a websocket until the task
// finishes or the client goes away.
func (h *PostureHandler) TaskProgress(c echo.Context) error {
	ch, ok := h.tasks.Subscribe(c.Param("id"))
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"task_id": c.Param("id")})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for snap := range ch {
		if err := conn.WriteJSON(snap); err != nil {
			return nil // client gone
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	return nil
}

func (h *PostureHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if err := h.repo.Health(c.Request().Context()); err != nil {
		status["status"] = "degraded"
		status["storage"] = err.Error()
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func symbolsOf(raws []models.RawRecord) []string {
	out := make([]string, 0, len(raws))
	for _, r := range raws {
		if s, ok := r["Symbol"].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
