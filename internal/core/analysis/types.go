package analysis

import (
	"encoding/json"
	"fmt"
	"math"
)

// Status 分析結果狀態
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNotFound Status = "not_found"
	StatusDanger   Status = "danger"
	StatusError    Status = "error"
)

// Valid 是否屬於四種已知狀態
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusNotFound, StatusDanger, StatusError:
		return true
	}
	return false
}

// 使用者可見的訊息
const (
	MsgImageTooLarge      = "Изображение слишком длинное или слишком широкое"
	MsgImageTooSmall      = "Изображение слишком короткое или слишком узкое"
	MsgServiceUnavailable = "Ошибка сервиса распознавания фото"
	MsgAnalysisFailed     = "Ошибка при анализе изображения"
	MsgMalformedResponse  = "Ошибка формирования ответа"
)

// MaxBenefitScore benefit_score 上限
const MaxBenefitScore = 5.0

// FoodItem 單一食物的營養估計（整份，單位克）
type FoodItem struct {
	Proteins      float64 `json:"proteins"`
	Fats          float64 `json:"fats"`
	Carbohydrates float64 `json:"carbohydrates"`
	Water         float64 `json:"water"`
	Weight        int     `json:"weight"`
	BenefitScore  float64 `json:"benefit_score"`
}

// Validate 檢查數值範圍
func (f FoodItem) Validate() error {
	for name, v := range map[string]float64{
		"proteins":      f.Proteins,
		"fats":          f.Fats,
		"carbohydrates": f.Carbohydrates,
		"water":         f.Water,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a non-negative number, got %v", name, v)
		}
	}
	if f.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %d", f.Weight)
	}
	if f.BenefitScore < 0 || f.BenefitScore > MaxBenefitScore || math.IsNaN(f.BenefitScore) {
		return fmt.Errorf("benefit_score must be in [0,5], got %v", f.BenefitScore)
	}
	return nil
}

// Outcome 圖片分析的四種結果之一。
// FoodItems 只在 success/danger 存在，Message 只在 not_found/danger/error 存在。
type Outcome struct {
	Status    Status
	Message   string
	FoodItems map[string]FoodItem
}

// Success 辨識到食物
func Success(items map[string]FoodItem) Outcome {
	return Outcome{Status: StatusSuccess, FoodItems: items}
}

// NotFound 圖片中沒有食物
func NotFound(message string) Outcome {
	return Outcome{Status: StatusNotFound, Message: message}
}

// Danger 食物有害，benefit_score 一律為 0
func Danger(message string, items map[string]FoodItem) Outcome {
	zeroed := make(map[string]FoodItem, len(items))
	for name, item := range items {
		item.BenefitScore = 0
		zeroed[name] = item
	}
	return Outcome{Status: StatusDanger, Message: message, FoodItems: zeroed}
}

// Failure 分析失敗
func Failure(message string) Outcome {
	return Outcome{Status: StatusError, Message: message}
}

// Unrecognized 上游回傳了約定外的狀態
func Unrecognized(status Status) Outcome {
	return Outcome{Status: status}
}

// HasItems 該狀態是否帶有食物清單
func (o Outcome) HasItems() bool {
	return o.Status == StatusSuccess || o.Status == StatusDanger
}

// HasMessage 該狀態是否帶有訊息
func (o Outcome) HasMessage() bool {
	return o.Status == StatusNotFound || o.Status == StatusDanger || o.Status == StatusError
}

type outcomeJSON struct {
	Status    Status               `json:"status"`
	Message   *string              `json:"message,omitempty"`
	FoodItems *map[string]FoodItem `json:"food_items,omitempty"`
}

// MarshalJSON 依狀態輸出對應欄位
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{Status: o.Status}
	if o.HasMessage() {
		msg := o.Message
		out.Message = &msg
	}
	if o.HasItems() {
		items := o.FoodItems
		if items == nil {
			items = map[string]FoodItem{}
		}
		out.FoodItems = &items
	}
	return json.Marshal(out)
}
