package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlfilter/sanitizer"
	"github.com/cppla/htmlfilter/utils"
)

// RulesController lists the active whitelist.
type RulesController struct {
	whitelist *sanitizer.Whitelist
}

// NewRulesController creates a RulesController over the default whitelist.
func NewRulesController() *RulesController {
	return &RulesController{whitelist: sanitizer.DefaultWhitelist()}
}

// ListRules returns every rule name with its compiled pattern.
func (r *RulesController) ListRules(ctx *gin.Context) {
	rules := r.whitelist.Rules()
	items := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		items = append(items, gin.H{
			"name":    rule.Name,
			"pattern": rule.Pattern(),
		})
	}
	utils.Success(ctx, gin.H{
		"rules": items,
		"count": len(items),
	})
}
