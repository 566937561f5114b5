package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"csvpilot/internal/analyzer"
	"csvpilot/internal/config"
	"csvpilot/internal/entitlement"
	"csvpilot/internal/markdown"
	"csvpilot/internal/middleware"
	"csvpilot/internal/models"
	"csvpilot/internal/service"
	"csvpilot/internal/session"
	"csvpilot/internal/tabular"

	"github.com/gin-gonic/gin"
)

const (
	previewRows    = 20
	maxUploadBytes = 10 << 20 // 10 MiB upload cap
)

type AnalyzeHandler struct {
	completer analyzer.Completer
	store     session.Store
	cfg       *config.Config
	audit     *service.AuditService // nil when auditing is disabled
}

func NewAnalyzeHandler(completer analyzer.Completer, store session.Store, cfg *config.Config, audit *service.AuditService) *AnalyzeHandler {
	return &AnalyzeHandler{
		completer: completer,
		store:     store,
		cfg:       cfg,
		audit:     audit,
	}
}

// Handles POST /upload
//
// Admission runs before the file is even opened: consumption must never
// depend on whether the downstream work succeeds, and a failed decode or
// AI call does not refund it.
func (h *AnalyzeHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	visitorID := c.GetString(middleware.ContextVisitorID)
	state := middleware.SessionState(c)
	requestID := c.GetString("request_id")
	start := time.Now()

	// Which bucket pays for this request, for the audit trail
	source := models.SourceFree
	if state.Pro {
		source = models.SourcePro
	} else if state.Credits > 0 {
		source = models.SourceCredit
	}

	decision := entitlement.AdmitAndConsume(state, start, h.cfg.Quota.FreeRunLimit, h.cfg.Quota.Window())

	// Persist the transition (consumption or pruning) before anything slow
	// or fallible runs
	if err := h.store.Put(c.Request.Context(), visitorID, state); err != nil {
		log.Printf("[%s] Failed to persist session state: %v", requestID, err)
	}

	if decision == entitlement.Denied {
		c.Redirect(http.StatusSeeOther, "/?limit=1")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		renderLanding(c, http.StatusBadRequest, h.cfg, state, landingFlash{
			Error: "Please choose a CSV file to upload.",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		renderLanding(c, http.StatusBadRequest, h.cfg, state, landingFlash{
			Error: "Could not read the uploaded file.",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		renderLanding(c, http.StatusBadRequest, h.cfg, state, landingFlash{
			Error: "Could not read the uploaded file.",
		})
		return
	}

	table, err := tabular.Decode(data)
	if err != nil {
		msg := "Could not parse the file as a CSV table."
		if errors.Is(err, tabular.ErrEmptyTable) {
			msg = "The uploaded file is empty."
		}
		renderLanding(c, http.StatusBadRequest, h.cfg, state, landingFlash{Error: msg})
		return
	}

	result, err := h.completer.Analyze(c.Request.Context(), table.Preview(previewRows), table.Columns)
	if err != nil {
		// Caught at the call boundary: shown inline, never a crash
		log.Printf("[%s] AI analysis failed: %v", requestID, err)
		h.record(c, visitorID, fileHeader.Filename, table, source, http.StatusOK, start)
		c.HTML(http.StatusOK, "result.html", gin.H{
			"Filename": fileHeader.Filename,
			"Error":    "The analysis service is unavailable right now. Your quota was already used; please try again later.",
		})
		return
	}

	html, err := markdown.Render(result)
	if err != nil {
		log.Printf("[%s] Markdown render failed: %v", requestID, err)
		c.HTML(http.StatusOK, "result.html", gin.H{
			"Filename": fileHeader.Filename,
			"Raw":      result,
		})
		return
	}

	h.record(c, visitorID, fileHeader.Filename, table, source, http.StatusOK, start)
	c.HTML(http.StatusOK, "result.html", gin.H{
		"Filename": fileHeader.Filename,
		"Analysis": html,
	})
}

func (h *AnalyzeHandler) record(c *gin.Context, visitorID, filename string, table *tabular.Table, source string, status int, start time.Time) {
	if h.audit == nil {
		return
	}

	h.audit.RecordAnalysis(models.AnalysisLog{
		Timestamp:  start,
		VisitorID:  visitorID,
		Filename:   filename,
		RowCount:   len(table.Rows),
		ColCount:   len(table.Columns),
		Source:     source,
		StatusCode: status,
		DurationMs: int(time.Since(start).Milliseconds()),
		IPAddress:  c.ClientIP(),
	})
}
