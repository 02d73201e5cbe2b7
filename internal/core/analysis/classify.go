package analysis

// Category 結果對外的分類
type Category int

const (
	// CategoryPayload 正常回傳（success / not_found / danger）
	CategoryPayload Category = iota
	// CategoryClientError 請求失敗，帶訊息
	CategoryClientError
	// CategoryServerError 上游不再遵守約定的狀態
	CategoryServerError
)

func (c Category) String() string {
	switch c {
	case CategoryPayload:
		return "payload"
	case CategoryClientError:
		return "client_error"
	default:
		return "server_error"
	}
}

// Classify 依狀態決定對外表示方式
func Classify(o Outcome) Category {
	switch {
	case !o.Status.Valid():
		return CategoryServerError
	case o.Status == StatusError:
		return CategoryClientError
	}
	return CategoryPayload
}
