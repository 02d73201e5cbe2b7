package analysis

// 預設圖片尺寸範圍（像素）
const (
	DefaultMinDimension = 100
	DefaultMaxDimension = 2500
)

// Image 已解碼的圖片，核心只關心尺寸
type Image struct {
	Width    int
	Height   int
	Data     []byte
	MIMEType string
}

// Bounds 圖片尺寸限制
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds 預設尺寸限制
func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinDimension, Max: DefaultMaxDimension}
}

// Check 檢查圖片尺寸，通過時回傳 ok=true；不做任何 I/O
func (b Bounds) Check(img Image) (Outcome, bool) {
	if img.Width > b.Max || img.Height > b.Max {
		return Failure(MsgImageTooLarge), false
	}
	if img.Width < b.Min || img.Height < b.Min {
		return Failure(MsgImageTooSmall), false
	}
	return Outcome{}, true
}
