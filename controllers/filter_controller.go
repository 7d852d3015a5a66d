package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/metrics"
	"github.com/cppla/htmlfilter/middleware"
	"github.com/cppla/htmlfilter/models"
	"github.com/cppla/htmlfilter/sanitizer"
	"github.com/cppla/htmlfilter/utils"
)

const (
	stageSanitize = "sanitize"
	stageBalance  = "balance"
	stageFilter   = "filter"
)

// FilterController exposes the sanitize and balance stages over HTTP.
type FilterController struct {
	db         *gorm.DB
	cache      *utils.ResultCache
	ugc        bool
	maxBytes   int64
	sampleSize int
}

type filterRequest struct {
	HTML *string `json:"html" binding:"required"`
}

// NewFilterController creates a FilterController. db and cache may be nil.
func NewFilterController(db *gorm.DB, cache *utils.ResultCache) *FilterController {
	cfg := config.Get()
	return &FilterController{
		db:         db,
		cache:      cache,
		ugc:        cfg.UGCPass,
		maxBytes:   int64(cfg.MaxInputBytes),
		sampleSize: cfg.AuditSampleSize,
	}
}

// Sanitize removes every tag the whitelist does not accept.
func (f *FilterController) Sanitize(ctx *gin.Context) {
	input, ok := f.bind(ctx)
	if !ok {
		return
	}
	out, rejected := sanitizer.SanitizeReport(input)
	metrics.RejectedTags.Add(len(rejected))
	f.audit(ctx, stageSanitize, input, sanitizer.Report{HTML: out, Rejected: rejected})

	utils.Success(ctx, gin.H{
		"html":     out,
		"rejected": nonNil(rejected),
		"changed":  out != input,
	})
}

// Balance removes opening tags that have no matching closer.
func (f *FilterController) Balance(ctx *gin.Context) {
	input, ok := f.bind(ctx)
	if !ok {
		return
	}
	out, orphans := sanitizer.BalanceReport(input)
	metrics.OrphanTags.Add(len(orphans))
	f.audit(ctx, stageBalance, input, sanitizer.Report{HTML: out, Orphans: orphans})

	utils.Success(ctx, gin.H{
		"html":    out,
		"orphans": nonNil(orphans),
		"changed": out != input,
	})
}

// Filter runs both stages, plus the UGC pass when enabled, and caches the report.
func (f *FilterController) Filter(ctx *gin.Context) {
	input, ok := f.bind(ctx)
	if !ok {
		return
	}

	key := utils.CacheKey(stageFilter, f.ugc, input)
	var report sanitizer.Report
	cached := f.cache != nil && f.cache.GetJSON(ctx.Request.Context(), key, &report)
	if !cached {
		report = f.inspect(input)
		if f.cache != nil {
			f.cache.SetJSON(ctx.Request.Context(), key, report)
		}
	}

	metrics.RejectedTags.Add(len(report.Rejected))
	metrics.OrphanTags.Add(len(report.Orphans))
	f.audit(ctx, stageFilter, input, report)

	utils.Success(ctx, gin.H{
		"html":     report.HTML,
		"rejected": nonNil(report.Rejected),
		"orphans":  nonNil(report.Orphans),
		"changed":  report.HTML != input,
		"cached":   cached,
	})
}

func (f *FilterController) inspect(input string) sanitizer.Report {
	report := sanitizer.Inspect(input)
	if f.ugc {
		report.HTML = utils.UGCPass(report.HTML)
	}
	return report
}

// bind reads {"html": "..."} from the body, enforcing the size limit.
func (f *FilterController) bind(ctx *gin.Context) (string, bool) {
	if f.maxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, f.maxBytes)
	}
	var req filterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, "payload too large")
			return "", false
		}
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return "", false
	}
	return *req.HTML, true
}

// audit stores a FilterAudit row when the stage altered its input.
// Storage failures are logged and never fail the request.
func (f *FilterController) audit(ctx *gin.Context, endpoint, input string, report sanitizer.Report) {
	if f.db == nil || report.HTML == input {
		return
	}

	row := models.FilterAudit{
		RequestID:      ctx.GetString(utils.RequestIDKey),
		ClientIP:       middleware.ClientIP(ctx),
		Endpoint:       endpoint,
		InputSHA256:    utils.HashInput(input),
		InputBytes:     len(input),
		OutputBytes:    len(report.HTML),
		RejectedCount:  len(report.Rejected),
		OrphanCount:    len(report.Orphans),
		RejectedSample: rejectedSample(report.Rejected, f.sampleSize),
	}

	dbCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()
	if err := f.db.WithContext(dbCtx).Create(&row).Error; err != nil {
		metrics.AuditFailures.Inc()
		utils.Sugar.Warnw("audit insert failed", "request_id", row.RequestID, "error", err)
	}
}

// rejectedSample encodes up to n raw rejected tokens as a JSON array, with
// "<", ">" and "&" left unescaped so the column stays readable.
func rejectedSample(tokens []sanitizer.Token, n int) string {
	raws := make([]string, 0, max(0, min(len(tokens), n)))
	for i := 0; i < len(tokens) && i < n; i++ {
		raws = append(raws, tokens[i].Raw)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raws); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func nonNil(tokens []sanitizer.Token) []sanitizer.Token {
	if tokens == nil {
		return []sanitizer.Token{}
	}
	return tokens
}
