package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/utils"
)

const (
	// ContextSubjectKey stores the authenticated admin subject in Gin context.
	ContextSubjectKey = "subject"
	// ContextClaimsKey stores the parsed claims in Gin context.
	ContextClaimsKey = "claims"
)

// AdminRequired ensures the request carries a valid admin JWT.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !config.Get().AdminEnabled() {
			utils.Abort(ctx, http.StatusForbidden, 40310, "admin api disabled")
			return
		}

		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			utils.Abort(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			return
		}

		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			if errors.Is(err, utils.ErrAdminDisabled) {
				utils.Abort(ctx, http.StatusForbidden, 40310, "admin api disabled")
				return
			}
			utils.Abort(ctx, http.StatusUnauthorized, 40105, "invalid token")
			return
		}

		if utils.IsTokenRevoked(ctx.Request.Context(), claims.ID) {
			utils.Abort(ctx, http.StatusUnauthorized, 40104, "token revoked")
			return
		}

		ctx.Set(ContextSubjectKey, claims.Subject)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}
