package nutrition

import "errors"

// EstimateWeight 估計值固定以 100 克為單位
const EstimateWeight = 100.0

// 使用者可見的訊息
const (
	MsgProductNotFound = "Продукт не найден"
	MsgSearchError     = "Ошибка при поиске"
)

var (
	// ErrNotFound 沒有可用的搜尋結果
	ErrNotFound = errors.New("nutrition not found")
	// ErrSearchTimeout 搜尋超過期限
	ErrSearchTimeout = errors.New("nutrition search timed out")

	errNoMatch = errors.New("no candidate matched the query")
)

// Estimate 每 100 克的營養估計值（多筆資料的中位數）
type Estimate struct {
	Calories      float64 `json:"calories"`
	Proteins      float64 `json:"proteins"`
	Fats          float64 `json:"fats"`
	Carbohydrates float64 `json:"carbohydrates"`
	Weight        float64 `json:"weight"`
}

// Candidate 搜尋服務回傳的單筆資料，只在彙總時使用
type Candidate struct {
	Name string `json:"name"`
	Info string `json:"info"`
}
