// =============================================================================
// Debt Ledger - HTTP API
// =============================================================================
//
// ROUTES:
//   GET  /healthz                                 liveness
//   GET  /api/users/:userID/debts/export          CSV attachment
//   GET  /api/users/:userID/debts/export.xlsx     XLSX attachment
//   POST /api/users/:userID/debts/import          CSV body -> ImportReport
//   POST /api/debts/validate                      CSV body -> ValidationOutcome
//
// The validate route decodes and validates without persisting anything, so a
// client can show the invalid rows and ask for confirmation before importing.
//
// =============================================================================

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/debtledger/internal/config"
	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/importer"
	"github.com/ginjaninja78/debtledger/internal/sheet"
	"github.com/ginjaninja78/debtledger/internal/types"
	"github.com/ginjaninja78/debtledger/internal/validation"
)

// MaxBodyBytes caps the size of an uploaded CSV body.
const MaxBodyBytes = 10 << 20

// Deps are the collaborators the router serves.
type Deps struct {
	Orchestrator *importer.Orchestrator
	Store        importer.RecordStore
	Codec        *csvcodec.Codec
	Validator    *validation.Validator
	Logger       logrus.FieldLogger

	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string
}

// PreflightResponse is the body of the validate route.
type PreflightResponse struct {
	types.ValidationOutcome
	Dropped []types.DroppedRow `json:"dropped"`
	Summary string             `json:"summary"`
}

type handler struct {
	deps Deps
}

// NewRouter builds the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		logg := logrus.New()
		logg.SetOutput(io.Discard)
		deps.Logger = logg
	}
	if deps.Codec == nil {
		deps.Codec = csvcodec.New(csvcodec.DefaultCurrency, deps.Logger)
	}
	if deps.Validator == nil {
		deps.Validator = validation.New(validation.Options{})
	}

	r := gin.New()
	r.Use(requestLogger(deps.Logger))
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	h := &handler{deps: deps}

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	users := r.Group("/api/users/:userID/debts")
	users.GET("/export", h.exportCSV)
	users.GET("/export.xlsx", h.exportXLSX)
	users.POST("/import", h.importCSV)

	r.POST("/api/debts/validate", h.validate)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

func (h *handler) exportCSV(c *gin.Context) {
	userID := c.Param("userID")
	result := h.deps.Orchestrator.GenerateExportData(c.Request.Context(), userID)
	if !result.Success {
		status := http.StatusInternalServerError
		if result.Error == importer.ErrNoRecords.Error() {
			status = http.StatusNotFound
		}
		c.JSON(status, result)
		return
	}

	c.Header("Content-Disposition", attachment(userID, "csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(result.CSVData))
}

func (h *handler) exportXLSX(c *gin.Context) {
	userID := c.Param("userID")
	records, err := h.deps.Store.ListRecords(c.Request.Context(), userID)
	if err != nil {
		config.LogError(h.deps.Logger, "api", "exportXLSX", "list records", userID, err)
		c.JSON(http.StatusInternalServerError, types.ExportResult{Error: err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, types.ExportResult{Error: importer.ErrNoRecords.Error()})
		return
	}

	f, err := sheet.WriteWorkbook(records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ExportResult{Error: err.Error()})
		return
	}
	defer f.Close()

	c.Header("Content-Type", sheet.ContentType)
	c.Header("Content-Disposition", attachment(userID, "xlsx"))
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (h *handler) importCSV(c *gin.Context) {
	text, ok := readBody(c)
	if !ok {
		return
	}

	report := h.deps.Orchestrator.ImportFromCSVText(c.Request.Context(), c.Param("userID"), text)
	status := http.StatusOK
	if !report.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, report)
}

func (h *handler) validate(c *gin.Context) {
	text, ok := readBody(c)
	if !ok {
		return
	}

	decoded, err := h.deps.Codec.DecodeDetailed(text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := h.deps.Validator.Validate(decoded.Records)
	if outcome.Valid == nil {
		outcome.Valid = []types.DebtRecord{}
	}
	if outcome.Invalid == nil {
		outcome.Invalid = []types.InvalidRow{}
	}
	dropped := decoded.Dropped
	if dropped == nil {
		dropped = []types.DroppedRow{}
	}

	c.JSON(http.StatusOK, PreflightResponse{
		ValidationOutcome: outcome,
		Dropped:           dropped,
		Summary:           validation.FormatErrors(outcome),
	})
}

func readBody(c *gin.Context) (string, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return string(data), true
}

func attachment(userID, ext string) string {
	return fmt.Sprintf("attachment; filename=debts_%s_%s.%s", userID, time.Now().Format("20060102"), ext)
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}
