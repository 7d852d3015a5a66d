package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/middleware"
	"github.com/cppla/htmlfilter/models"
	"github.com/cppla/htmlfilter/sanitizer"
	"github.com/cppla/htmlfilter/utils"
)

const maxPageSize = 100

// AdminController serves the token, audit, stats and cache endpoints.
type AdminController struct {
	db    *gorm.DB
	cache *utils.ResultCache
}

// NewAdminController creates an AdminController. db and cache may be nil.
func NewAdminController(db *gorm.DB, cache *utils.ResultCache) *AdminController {
	return &AdminController{db: db, cache: cache}
}

// Token exchanges the configured admin credentials for a JWT.
func (a *AdminController) Token(ctx *gin.Context) {
	cfg := config.Get()
	if !cfg.AdminEnabled() {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin api disabled")
		return
	}

	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	ip := middleware.ClientIP(ctx)
	if utils.LoginIsBanned(ctx.Request.Context(), ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "too many failed logins")
		return
	}

	if req.Username != cfg.AdminUsername || !utils.CheckPassword(cfg.AdminPasswordHash, req.Password) {
		fails := utils.LoginFailRecord(ctx.Request.Context(), ip)
		utils.Sugar.Infow("admin login rejected", "username", req.Username, "ip", ip, "failures", fails)
		if fails >= cfg.AdminMaxFailures {
			utils.LoginBan(ctx.Request.Context(), ip, time.Duration(cfg.AdminBanMinutes)*time.Minute)
		}
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid username or password")
		return
	}
	utils.LoginReset(ctx.Request.Context(), ip)

	token, expiresAt, err := utils.GenerateToken(req.Username, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	if err != nil {
		utils.Sugar.Errorw("generate token failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout revokes the presented token until it expires.
func (a *AdminController) Logout(ctx *gin.Context) {
	claims, ok := ctx.Get(middleware.ContextClaimsKey)
	c, _ := claims.(*utils.Claims)
	if !ok || c == nil || c.ExpiresAt == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	utils.RevokeToken(ctx.Request.Context(), c.ID, c.ExpiresAt.Time)
	utils.Success(ctx, gin.H{"revoked": true})
}

// ListAudits returns audit rows newest first, optionally filtered by endpoint.
func (a *AdminController) ListAudits(ctx *gin.Context) {
	if a.db == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "audits unavailable")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	dbCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	endpoint := strings.TrimSpace(ctx.Query("endpoint"))
	query := func() *gorm.DB {
		q := a.db.WithContext(dbCtx).Model(&models.FilterAudit{})
		if endpoint != "" {
			q = q.Where("endpoint = ?", endpoint)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		utils.Sugar.Warnw("count audits failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to query audits")
		return
	}

	var rows []models.FilterAudit
	if err := query().Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		utils.Sugar.Warnw("list audits failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to query audits")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      rows,
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}

// GetStats returns audit totals and cache occupancy.
func (a *AdminController) GetStats(ctx *gin.Context) {
	data := gin.H{
		"rules":          len(sanitizer.DefaultWhitelist().Rules()),
		"audits_enabled": a.db != nil,
		"cache_entries":  0,
	}
	if a.cache != nil {
		data["cache_entries"] = a.cache.Len()
	}

	if a.db != nil {
		var totals struct {
			Audits      int64
			Rejected    int64
			Orphans     int64
			InputBytes  int64
			OutputBytes int64
		}
		dbCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()
		err := a.db.WithContext(dbCtx).Model(&models.FilterAudit{}).
			Select("COUNT(*) AS audits, COALESCE(SUM(rejected_count),0) AS rejected, COALESCE(SUM(orphan_count),0) AS orphans, " +
				"COALESCE(SUM(input_bytes),0) AS input_bytes, COALESCE(SUM(output_bytes),0) AS output_bytes").
			Scan(&totals).Error
		if err != nil {
			// Fallback to zeros instead of failing the whole endpoint
			utils.Sugar.Warnw("audit totals failed", "error", err)
		}
		data["audit_count"] = totals.Audits
		data["rejected_tags"] = totals.Rejected
		data["orphan_tags"] = totals.Orphans
		data["input_bytes"] = totals.InputBytes
		data["output_bytes"] = totals.OutputBytes
	}

	utils.Success(ctx, data)
}

// PurgeCache drops every cached filter result.
func (a *AdminController) PurgeCache(ctx *gin.Context) {
	if a.cache == nil {
		utils.Success(ctx, gin.H{"removed": 0})
		return
	}
	removed := a.cache.Purge(ctx.Request.Context())
	utils.Sugar.Infow("cache purged", "subject", ctx.GetString(middleware.ContextSubjectKey), "redis_keys", removed)
	utils.Success(ctx, gin.H{"removed": removed})
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
		pageSize = min(s, maxPageSize)
	}
	return page, pageSize
}
