package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	fenceOpen  = "```json"
	fenceClose = "```"
)

// 第一個 { 到最後一個 } 的貪婪匹配
var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// rawOutcome 上游 JSON 的寬鬆形狀
type rawOutcome struct {
	Status    *string            `json:"status"`
	Message   *string            `json:"message"`
	FoodItems map[string]rawItem `json:"food_items"`
}

type rawItem struct {
	Proteins      *json.Number `json:"proteins"`
	Fats          *json.Number `json:"fats"`
	Carbohydrates *json.Number `json:"carbohydrates"`
	Water         *json.Number `json:"water"`
	Weight        *json.Number `json:"weight"`
	BenefitScore  *json.Number `json:"benefit_score"`
}

// Extract 將模型輸出的文字轉為 Outcome，任何輸入都不會回傳錯誤或 panic
func Extract(text string) Outcome {
	body := stripFence(text)

	outcome, err := decodeOutcome(body)
	if err == nil {
		return outcome
	}
	common.LogDebug("嚴格解析失敗，嘗試擷取物件片段", zap.Error(err))

	if span := objectSpan.FindString(body); span != "" && span != body {
		outcome, err = decodeOutcome(span)
		if err == nil {
			return outcome
		}
	}

	common.LogError("Ошибка обработки JSON",
		zap.Error(err),
		zap.Int("text_length", len(text)),
	)
	return Failure(MsgMalformedResponse)
}

// stripFence 去掉 markdown 程式碼區塊標記
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, fenceOpen)
	text = strings.TrimSuffix(text, fenceClose)
	return text
}

// decodeOutcome 嚴格解析並驗證欄位
func decodeOutcome(body string) (Outcome, error) {
	var raw rawOutcome
	if err := common.ParseJSON(body, &raw); err != nil {
		return Outcome{}, err
	}
	return raw.toOutcome()
}

func (r rawOutcome) toOutcome() (Outcome, error) {
	if r.Status == nil {
		return Outcome{}, errors.New("missing status")
	}
	status := Status(*r.Status)

	switch status {
	case StatusSuccess:
		items, err := r.items()
		if err != nil {
			return Outcome{}, err
		}
		return Success(items), nil

	case StatusDanger:
		msg, err := r.message()
		if err != nil {
			return Outcome{}, err
		}
		items, err := r.items()
		if err != nil {
			return Outcome{}, err
		}
		for name, item := range items {
			if item.BenefitScore != 0 {
				common.LogWarn("danger 結果的 benefit_score 非 0，已強制歸零",
					zap.String("food", name),
					zap.Float64("benefit_score", item.BenefitScore),
				)
			}
		}
		return Danger(msg, items), nil

	case StatusNotFound:
		msg, err := r.message()
		if err != nil {
			return Outcome{}, err
		}
		return NotFound(msg), nil

	case StatusError:
		msg, err := r.message()
		if err != nil {
			return Outcome{}, err
		}
		return Failure(msg), nil
	}

	// 可解析但狀態不在約定內，保留原始狀態交給 Classify
	common.LogWarn("上游回傳未知狀態", zap.String("status", string(status)))
	return Unrecognized(status), nil
}

func (r rawOutcome) message() (string, error) {
	if r.Message == nil {
		return "", errors.New("missing message")
	}
	return *r.Message, nil
}

func (r rawOutcome) items() (map[string]FoodItem, error) {
	if r.FoodItems == nil {
		return nil, errors.New("missing food_items")
	}

	items := make(map[string]FoodItem, len(r.FoodItems))
	for name, raw := range r.FoodItems {
		item, err := raw.toFoodItem()
		if err != nil {
			return nil, fmt.Errorf("food item %q: %w", name, err)
		}
		items[name] = item
	}
	return items, nil
}

func (r rawItem) toFoodItem() (FoodItem, error) {
	var item FoodItem
	var err error

	if item.Proteins, err = requireFloat("proteins", r.Proteins); err != nil {
		return item, err
	}
	if item.Fats, err = requireFloat("fats", r.Fats); err != nil {
		return item, err
	}
	if item.Carbohydrates, err = requireFloat("carbohydrates", r.Carbohydrates); err != nil {
		return item, err
	}
	if item.Water, err = requireFloat("water", r.Water); err != nil {
		return item, err
	}
	if item.BenefitScore, err = requireFloat("benefit_score", r.BenefitScore); err != nil {
		return item, err
	}

	weight, err := requireFloat("weight", r.Weight)
	if err != nil {
		return item, err
	}
	if weight != math.Trunc(weight) || weight > math.MaxInt32 {
		return item, fmt.Errorf("weight must be an integer, got %v", weight)
	}
	item.Weight = int(weight)

	return item, item.Validate()
}

func requireFloat(field string, n *json.Number) (float64, error) {
	if n == nil {
		return 0, fmt.Errorf("missing %s", field)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return v, nil
}
