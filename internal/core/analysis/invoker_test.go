package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"food-analyzer/internal/core/ai/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider 可控制輸出的 Provider
type fakeProvider struct {
	mu    sync.Mutex
	text  string
	err   error
	panic bool
	calls int32
	last  *provider.Request
	block chan struct{}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Text: f.text}, nil
}

// fakeFactory 記錄建立次數
type fakeFactory struct {
	mu    sync.Mutex
	p     *fakeProvider
	err   error
	calls int32
	creds []string
}

func (f *fakeFactory) New(_ context.Context, credential string) (provider.Provider, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.creds = append(f.creds, credential)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.p, nil
}

func image(w, h int) Image {
	return Image{Width: w, Height: h, Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}
}

func TestImageBoundsRejectBeforeAnyCall(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{2700, 600, MsgImageTooLarge},
		{2700, 2800, MsgImageTooLarge},
		{200, 5662, MsgImageTooLarge},
		{50, 600, MsgImageTooSmall},
		{20, 10, MsgImageTooSmall},
		{200, 11, MsgImageTooSmall},
		{50, 3000, MsgImageTooLarge},
	}

	for _, tt := range tests {
		factory := &fakeFactory{p: &fakeProvider{text: `{"status":"not_found","message":"x"}`}}
		inv := NewInvoker(factory, DefaultBounds(), false)

		got := inv.Analyze(context.Background(), Request{
			Image:      image(tt.w, tt.h),
			Credential: "test",
			Substitute: &Substitute{Text: "тестовый ответ"},
		})

		assert.Equal(t, Failure(tt.want), got, "%dx%d", tt.w, tt.h)
		assert.Zero(t, factory.calls, "no client may be built for %dx%d", tt.w, tt.h)
	}
}

func TestImageBoundsAreInclusive(t *testing.T) {
	for _, img := range []Image{image(100, 100), image(2500, 2500), image(100, 2500)} {
		_, ok := DefaultBounds().Check(img)
		assert.True(t, ok, "%dx%d", img.Width, img.Height)
	}
}

func TestClientConstructionFailure(t *testing.T) {
	factory := &fakeFactory{err: provider.ErrMissingCredential}
	inv := NewInvoker(factory, DefaultBounds(), false)

	got := inv.Analyze(context.Background(), Request{
		Image:      image(500, 500),
		Substitute: &Substitute{Text: "тестовый ответ"},
	})
	assert.Equal(t, Failure(MsgServiceUnavailable), got)
}

func TestSubstituteResponse(t *testing.T) {
	p := &fakeProvider{text: chickenAndRice}
	inv := NewInvoker(&fakeFactory{p: p}, DefaultBounds(), false)

	got := inv.Analyze(context.Background(), Request{
		Image:      image(500, 500),
		Credential: "test",
		Substitute: &Substitute{Text: `{"status":"not_found","message":"На фото нет еды"}`},
	})

	assert.Equal(t, NotFound("На фото нет еды"), got)
	assert.Zero(t, p.calls)
}

func TestSubstituteIgnoredInProduction(t *testing.T) {
	p := &fakeProvider{text: `{"status":"not_found","message":"реальный ответ"}`}
	inv := NewInvoker(&fakeFactory{p: p}, DefaultBounds(), true)

	got := inv.Analyze(context.Background(), Request{
		Image:      image(500, 500),
		Substitute: &Substitute{Text: `{"status":"not_found","message":"подмена"}`},
	})

	assert.Equal(t, NotFound("реальный ответ"), got)
	assert.Equal(t, int32(1), p.calls)
}

func TestCallFailureIsDistinctFromMalformedResponse(t *testing.T) {
	inv := NewInvoker(&fakeFactory{p: &fakeProvider{}}, DefaultBounds(), false)

	callFailed := inv.Analyze(context.Background(), Request{
		Image:      image(500, 500),
		Substitute: &Substitute{Err: errors.New("неверный тип ответа")},
	})
	malformed := inv.Analyze(context.Background(), Request{
		Image:      image(500, 500),
		Substitute: &Substitute{Text: "не JSON"},
	})

	assert.Equal(t, Failure(MsgAnalysisFailed), callFailed)
	assert.Equal(t, Failure(MsgMalformedResponse), malformed)
	assert.NotEqual(t, callFailed.Message, malformed.Message)
}

func TestUpstreamErrorsAndPanics(t *testing.T) {
	for name, p := range map[string]*fakeProvider{
		"quota": {err: errors.New("429 resource exhausted")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			inv := NewInvoker(&fakeFactory{p: p}, DefaultBounds(), false)
			got := inv.Analyze(context.Background(), Request{Image: image(800, 600)})
			assert.Equal(t, Failure(MsgAnalysisFailed), got)
		})
	}
}

func TestRequestCarriesPromptImageAndSampling(t *testing.T) {
	p := &fakeProvider{text: amanita}
	factory := &fakeFactory{p: p}
	inv := NewInvoker(factory, DefaultBounds(), false)

	got := inv.Analyze(context.Background(), Request{Image: image(800, 600), Credential: "caller-key"})
	require.Equal(t, StatusDanger, got.Status)

	require.NotNil(t, p.last)
	assert.Equal(t, systemPrompt, p.last.Prompt)
	assert.Equal(t, "image/jpeg", p.last.Image.MIMEType)
	assert.InDelta(t, 0.1, p.last.Sampling.Temperature, 1e-6)
	assert.InDelta(t, 0.95, p.last.Sampling.TopP, 1e-6)
	assert.Equal(t, 1, p.last.Sampling.TopK)
	assert.True(t, p.last.Sampling.JSON)
	assert.Equal(t, []string{"caller-key"}, factory.creds)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryPayload, Classify(Success(nil)))
	assert.Equal(t, CategoryPayload, Classify(NotFound("x")))
	assert.Equal(t, CategoryPayload, Classify(Danger("x", nil)))
	assert.Equal(t, CategoryClientError, Classify(Failure("x")))
	assert.Equal(t, CategoryServerError, Classify(Outcome{Status: "unknown"}))
	assert.Equal(t, CategoryServerError, Classify(Outcome{}))
}
