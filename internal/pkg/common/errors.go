package common

import "net/http"

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code   string `json:"code"`            // 錯誤代碼
	Detail string `json:"detail"`          // 使用者可見的錯誤信息
	Debug  string `json:"debug,omitempty"` // 原始錯誤（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithMessage 返回替換訊息後的副本
func (e *CustomError) WithMessage(message string) *CustomError {
	return &CustomError{Code: e.Code, Message: message, Status: e.Status, Err: e.Err}
}

// Response 轉為響應體
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{Code: e.Code, Detail: e.Message}
	if debug && e.Err != nil {
		resp.Debug = e.Err.Error()
	}
	return resp
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeValidation      = "VALIDATION_ERROR"  // 422

	// 服務器錯誤 (5xx)
	ErrCodeInternalError = "INTERNAL_ERROR" // 500

	// 業務錯誤
	ErrCodeInvalidImageType   = "INVALID_IMAGE_TYPE"
	ErrCodeInvalidImageSize   = "INVALID_IMAGE_SIZE"
	ErrCodeInvalidImageFormat = "INVALID_IMAGE_FORMAT"
	ErrCodeAnalysisFailed     = "ANALYSIS_FAILED"
	ErrCodeAnalysisTimeout    = "ANALYSIS_TIMEOUT"
	ErrCodeInvalidUpstream    = "INVALID_UPSTREAM_STATUS"
)

// 預定義錯誤
var (
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Слишком много запросов", http.StatusTooManyRequests, nil)
	ErrMissingFile     = NewError(ErrCodeValidation, "Файл изображения не передан", http.StatusUnprocessableEntity, nil)
	ErrInvalidQuery    = NewError(ErrCodeValidation, "Название продукта должно содержать от 1 до 100 символов", http.StatusUnprocessableEntity, nil)
	ErrRequestCanceled = NewError(ErrCodeRequestTimeout, "Запрос отменён", http.StatusRequestTimeout, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "Внутренняя ошибка сервера", http.StatusInternalServerError, nil)

	ErrInvalidImageType   = NewError(ErrCodeInvalidImageType, "Поддерживаются только JPEG и PNG", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError(ErrCodeInvalidImageSize, "Размер файла превышает допустимый", http.StatusBadRequest, nil)
	ErrInvalidImageFormat = NewError(ErrCodeInvalidImageFormat, "Невозможно обработать изображение", http.StatusBadRequest, nil)

	ErrAnalysisFailed  = NewError(ErrCodeAnalysisFailed, "Ошибка при анализе изображения", http.StatusBadRequest, nil)
	ErrAnalysisTimeout = NewError(ErrCodeAnalysisTimeout, "Анализ изображения превысил лимит времени", http.StatusRequestTimeout, nil)
	ErrInvalidUpstream = NewError(ErrCodeInvalidUpstream, "Некорректный статус от сервиса анализа", http.StatusInternalServerError, nil)
)
