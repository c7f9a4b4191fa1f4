package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

const thingXML = `<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
  <item type="boardgame" id="%d">
    <thumbnail>https://cf.geekdo-images.com/thumb.jpg</thumbnail>
    <image>
      %s
    </image>
  </item>
</items>`

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RetryWait = time.Millisecond
	cfg.Timeout = time.Second
	return cfg
}

func TestImageURL_CachesHit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/thing", r.URL.Path)
		assert.Equal(t, "13", r.URL.Query().Get("id"))
		assert.Equal(t, "boardgame", r.URL.Query().Get("type"))
		assert.Equal(t, "gameark/1.0", r.Header.Get("User-Agent"))
		fmt.Fprintf(w, thingXML, 13, "https://cf.geekdo-images.com/catan.jpg")
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	u, err := c.ImageURL(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, "https://cf.geekdo-images.com/catan.jpg", u)

	u, err = c.ImageURL(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, "https://cf.geekdo-images.com/catan.jpg", u)
	assert.Equal(t, int32(1), calls.Load())
}

func TestImageURL_RetriesAccepted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		fmt.Fprintf(w, thingXML, 7, "https://boardgamegeek.com/image/7.png")
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	u, err := c.ImageURL(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "https://boardgamegeek.com/image/7.png", u)
	assert.Equal(t, int32(2), calls.Load())
}

func TestImageURL_InvalidHostIsNegativeCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprintf(w, thingXML, 5, "https://example.com/x.jpg")
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	for range 2 {
		_, err := c.ImageURL(context.Background(), 5)
		require.Error(t, err)
		assert.True(t, core.IsNotFound(err))
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestImageURL_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 3
	c := New(cfg)
	_, err := c.ImageURL(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestImageURL_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 1
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	c := New(cfg)

	for id := int64(1); id <= 3; id++ {
		_, err := c.ImageURL(context.Background(), id)
		require.Error(t, err)
		assert.True(t, core.IsUnavailable(err))
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestImageURLs_SkipsMissingAndCapsBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "2" {
			fmt.Fprint(w, `<items></items>`)
			return
		}
		fmt.Fprintf(w, `<items><item id="%s"><image>https://cf.geekdo-images.com/%s.jpg</image></item></items>`, id, id)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxBatch = 3
	c := New(cfg)
	got := c.ImageURLs(context.Background(), []int64{1, 2, 3, 4})
	assert.Equal(t, map[int64]string{
		1: "https://cf.geekdo-images.com/1.jpg",
		3: "https://cf.geekdo-images.com/3.jpg",
	}, got)
	assert.Equal(t, 3, c.MaxBatch())
}

func TestValidImageURL(t *testing.T) {
	hosts := DefaultConfig().AllowedHosts
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cf.geekdo-images.com/abc.jpg", true},
		{"http://boardgamegeek.com/img.png", true},
		{"https://geekdo-images.com.evil.io/x.jpg", false},
		{"ftp://cf.geekdo-images.com/abc.jpg", false},
		{"//cf.geekdo-images.com/abc.jpg", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidImageURL(tt.url, hosts))
		})
	}
}
