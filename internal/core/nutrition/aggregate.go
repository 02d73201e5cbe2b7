package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// info 字串中的標記
const (
	calorieSuffix = "ккал"
	proteinTag    = "Б"
	fatTag        = "Ж"
	carbTag       = "У"
)

type nutrients struct {
	calories, proteins, fats, carbohydrates float64
}

// Aggregate 只採用名稱詞組與查詢完全相同的資料，逐欄取中位數。
// 沒有任何資料符合時回傳 errNoMatch；info 中的數值無法解析時整個查詢視為無結果。
func Aggregate(query string, candidates []Candidate) (*Estimate, error) {
	want := tokenSet(query)

	var calories, proteins, fats, carbs []float64
	for _, c := range candidates {
		if !sameTokens(want, tokenSet(c.Name)) {
			continue
		}
		n, err := parseInfo(c.Info)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.Name, err)
		}
		calories = append(calories, n.calories)
		proteins = append(proteins, n.proteins)
		fats = append(fats, n.fats)
		carbs = append(carbs, n.carbohydrates)
	}

	if len(calories) == 0 {
		return nil, errNoMatch
	}

	return &Estimate{
		Calories:      round2(median(calories)),
		Proteins:      round2(median(proteins)),
		Fats:          round2(median(fats)),
		Carbohydrates: round2(median(carbs)),
		Weight:        EstimateWeight,
	}, nil
}

// parseInfo 解析 "47 ккал, Б 0.4 г, Ж 0.4 г, У 9.8 г"，缺少的欄位為 0
func parseInfo(info string) (nutrients, error) {
	var n nutrients
	for _, segment := range strings.Split(info, ", ") {
		parts := strings.Fields(segment)
		if len(parts) == 0 {
			continue
		}

		// 熱量的數值在標記之前，其餘在標記之後
		var dst *float64
		pos := 1
		switch {
		case strings.HasSuffix(segment, calorieSuffix):
			dst, pos = &n.calories, 0
		case parts[0] == proteinTag:
			dst = &n.proteins
		case parts[0] == fatTag:
			dst = &n.fats
		case parts[0] == carbTag:
			dst = &n.carbohydrates
		default:
			continue
		}
		if len(parts) <= pos {
			return n, fmt.Errorf("tag %q without value", parts[0])
		}

		v, err := strconv.ParseFloat(parts[pos], 64)
		if err != nil {
			return n, fmt.Errorf("segment %q: %w", segment, err)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return n, fmt.Errorf("segment %q: invalid value %v", segment, v)
		}
		*dst = v
	}
	return n, nil
}

// tokenSet 小寫後以空白切詞，忽略順序與重複
func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sameTokens(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
