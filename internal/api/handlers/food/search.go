package food

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"food-analyzer/internal/core/nutrition"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 查詢名稱長度限制（字元）
const (
	minQueryLength = 1
	maxQueryLength = 100
)

// SearchResponse GET /search/ 的響應
type SearchResponse struct {
	Status    string              `json:"status"`
	FoodName  string              `json:"food_name,omitempty"`
	Nutrition *nutrition.Estimate `json:"nutrition,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// HandleSearch GET /search/?food_name=
func HandleSearch(svc *nutrition.Service, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := getRequestID(c)
		name := c.Query("food_name")

		if n := utf8.RuneCountInString(name); n < minQueryLength || n > maxQueryLength || strings.TrimSpace(name) == "" {
			abortWithError(c, common.ErrInvalidQuery, debug)
			return
		}

		estimate, err := svc.Lookup(c.Request.Context(), name)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, SearchResponse{
				Status:    "success",
				FoodName:  name,
				Nutrition: estimate,
			})
		case errors.Is(err, nutrition.ErrNotFound):
			c.JSON(http.StatusOK, SearchResponse{
				Status:  "not_found",
				Message: nutrition.MsgProductNotFound,
			})
		default:
			common.LogWarn("營養搜尋失敗",
				zap.String("request_id", requestID),
				zap.String("food_name", name),
				zap.Error(err),
			)
			c.JSON(http.StatusOK, SearchResponse{
				Status:  "error",
				Message: nutrition.MsgSearchError,
			})
		}
	}
}
