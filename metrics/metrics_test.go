package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordIndexLoad(t *testing.T) {
	before := testutil.ToFloat64(IndexLoadErrors.WithLabelValues("test_ratings"))
	RecordIndexLoad("test_ratings", time.Second, 0, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(IndexLoadErrors.WithLabelValues("test_ratings")))

	RecordIndexLoad("test_catalog", 10*time.Millisecond, 42, nil)
	assert.Equal(t, 42.0, testutil.ToFloat64(IndexSize.WithLabelValues("test_catalog")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200"))
	RecordAPIRequest("GET", "/test", 200, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200")))
}

func TestRecordRecommend(t *testing.T) {
	RecordRecommend("test_scene", 3*time.Millisecond, 12)
	assert.Equal(t, 1, testutil.CollectAndCount(RecommendDuration, "gameark_recommend_duration_seconds"))
}
