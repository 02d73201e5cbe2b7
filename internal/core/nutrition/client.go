package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const searchPath = "/api3/Food/FoodSearch"

// errUpstream 搜尋服務回傳非 2xx 或格式不符
var errUpstream = errors.New("unusable search response")

// searchResponse health-diet 回應格式
type searchResponse struct {
	Result *struct {
		Foods []Candidate `json:"foods"`
	} `json:"result"`
}

// Client 營養搜尋服務客戶端
type Client struct {
	client     *resty.Client
	dataSource string
}

// NewClient 創建搜尋客戶端
func NewClient(cfg config.SearchConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Accept", "application/json")

	return &Client{
		client:     client,
		dataSource: cfg.DataSource,
	}
}

// Search 以表單 POST 查詢，回傳未過濾的候選資料
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"query":                      query,
			"nutrientDataSourceFilter[]": c.dataSource,
		}).
		Post(searchPath)
	common.LogUpstreamCall("health-diet", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}

	if !resp.IsSuccess() {
		common.LogWarn("Search returned non-success status",
			zap.Int("status", resp.StatusCode()),
			zap.String("query", query),
		)
		return nil, fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode())
	}

	var result searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", errUpstream, err)
	}
	if result.Result == nil {
		return nil, nil
	}

	return result.Result.Foods, nil
}
