package nutrition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-analyzer/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleResponse = `{"result":{"foods":[
	{"name":"Яблоко","info":"47 ккал, Б 0.4 г, Ж 0.4 г, У 9.8 г"},
	{"name":"яблоко","info":"45 ккал, Б 0.3 г, Ж 0.2 г, У 9.0 г"},
	{"name":"яблоко","info":"52 ккал, Б 0.5 г, Ж 0.4 г, У 11.2 г"},
	{"name":"Яблоко сушёное","info":"243 ккал, Б 3.2 г, Ж 0.3 г, У 55.0 г"}
]}}`

func newSearchServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.SearchConfig{
		BaseURL:     srv.URL,
		DataSource:  "other",
		HTTPTimeout: time.Second,
	})
}

func TestClientSendsFormQuery(t *testing.T) {
	client := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, searchPath, r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "яблоко", r.PostForm.Get("query"))
		assert.Equal(t, "other", r.PostForm.Get("nutrientDataSourceFilter[]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(appleResponse))
	})

	got, err := client.Search(context.Background(), "яблоко")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, Candidate{Name: "Яблоко", Info: "47 ккал, Б 0.4 г, Ж 0.4 г, У 9.8 г"}, got[0])
}

func TestClientUnusableResponses(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"not found status": {http.StatusNotFound, `{"result":{"foods":[]}}`},
		"server error":     {http.StatusBadGateway, ``},
		"json string":      {http.StatusOK, `"неверный ответ от api"`},
		"not json":         {http.StatusOK, `<html></html>`},
		"foods not a list": {http.StatusOK, `{"result":{"foods":{"name":"яблоко"}}}`},
		"name not string":  {http.StatusOK, `{"result":{"foods":[{"name":1,"info":"47 ккал"}]}}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.Search(context.Background(), "яблоко")
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, errUpstream), "got %v", err)
		})
	}
}

func TestClientMissingResultIsEmpty(t *testing.T) {
	client := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	got, err := client.Search(context.Background(), "бррр")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClientHonoursContext(t *testing.T) {
	client := newSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "яблоко")
	assert.Error(t, err)
}
