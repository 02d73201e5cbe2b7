package food

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // 註冊解碼器
	_ "image/png"
	"io"
	"net/http"

	"food-analyzer/internal/core/analysis"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// AnalyzeOptions 上傳限制
type AnalyzeOptions struct {
	Image config.ImageConfig
	Debug bool
}

// HandleAnalyze POST /analyze/，multipart 欄位 file
func HandleAnalyze(svc *analysis.Service, opts AnalyzeOptions) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(opts.Image.AllowedTypes))
	for _, t := range opts.Image.AllowedTypes {
		allowed[t] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := getRequestID(c)
		caller := callerIdentity(c)

		common.LogInfo("開始處理圖片分析請求",
			zap.String("request_id", requestID),
			zap.String("client_ip", caller),
		)

		img, cerr := readImage(c, allowed, opts.Image.MaxSizeBytes)
		if cerr != nil {
			common.LogWarn("上傳圖片無效",
				zap.String("request_id", requestID),
				zap.String("code", cerr.Code),
				zap.Error(cerr),
			)
			abortWithError(c, cerr, opts.Debug)
			return
		}

		outcome, err := svc.Analyze(c.Request.Context(), caller, analysis.Request{Image: img})
		if err != nil {
			switch {
			case errors.Is(err, analysis.ErrAnalysisTimeout):
				abortWithError(c, common.ErrAnalysisTimeout, opts.Debug)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				common.LogWarn("呼叫端已取消請求",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
				abortWithError(c, common.ErrRequestCanceled, opts.Debug)
			default:
				abortWithError(c, common.NewError(common.ErrCodeInternalError, common.ErrInternalError.Message, http.StatusInternalServerError, err), opts.Debug)
			}
			return
		}

		switch analysis.Classify(outcome) {
		case analysis.CategoryPayload:
			c.JSON(http.StatusOK, outcome)
		case analysis.CategoryClientError:
			abortWithError(c, common.ErrAnalysisFailed.WithMessage(outcome.Message), opts.Debug)
		default:
			common.LogError("Некорректный статус от сервиса анализа",
				zap.String("request_id", requestID),
				zap.String("status", string(outcome.Status)),
			)
			abortWithError(c, common.ErrInvalidUpstream, opts.Debug)
		}
	}
}

// readImage 檢查類型與大小並讀出尺寸，不做完整解碼
func readImage(c *gin.Context, allowed map[string]struct{}, maxSize int64) (analysis.Image, *common.CustomError) {
	sizeErr := common.ErrInvalidImageSize.WithMessage("Размер файла превышает " + formatSize(maxSize))

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return analysis.Image{}, sizeErr
		}
		return analysis.Image{}, common.ErrMissingFile
	}

	contentType := fh.Header.Get("Content-Type")
	if _, ok := allowed[contentType]; !ok {
		return analysis.Image{}, common.ErrInvalidImageType
	}
	if fh.Size > maxSize {
		return analysis.Image{}, sizeErr
	}

	f, err := fh.Open()
	if err != nil {
		return analysis.Image{}, common.NewError(common.ErrCodeInvalidImageFormat, common.ErrInvalidImageFormat.Message, http.StatusBadRequest, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return analysis.Image{}, common.NewError(common.ErrCodeInvalidImageFormat, common.ErrInvalidImageFormat.Message, http.StatusBadRequest, err)
	}
	if int64(len(data)) > maxSize {
		return analysis.Image{}, sizeErr
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return analysis.Image{}, common.NewError(common.ErrCodeInvalidImageFormat, common.ErrInvalidImageFormat.Message, http.StatusBadRequest, err)
	}

	return analysis.Image{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Data:     data,
		MIMEType: contentType,
	}, nil
}

// formatSize 以 MB 顯示，不足整數 MB 時改用 KB
func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}
