package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersExposed(t *testing.T) {
	before := testutil.ToFloat64(Queries.WithLabelValues("normal"))
	Queries.WithLabelValues("normal").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Queries.WithLabelValues("normal")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(body, "ddg_queries_total"), body)
}
