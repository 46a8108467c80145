package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecommendation(t *testing.T) {
	before := testutil.ToFloat64(recommendations.WithLabelValues(PathFallback))

	ObserveRecommendation(PathFallback, 2, 0)
	ObserveRecommendation(PathFallback, 0, 0)

	if got := testutil.ToFloat64(recommendations.WithLabelValues(PathFallback)) - before; got != 2 {
		t.Fatalf("expected 2 fallback recommendations, got %v", got)
	}
}

func TestObserveTrain(t *testing.T) {
	okBefore := testutil.ToFloat64(trainings.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(trainings.WithLabelValues("error"))

	ObserveTrain(time.Now(), nil, 15, 100)
	ObserveTrain(time.Now(), errors.New("boom"), 0, 0)

	if got := testutil.ToFloat64(trainings.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Fatalf("expected one successful training, got %v", got)
	}
	if got := testutil.ToFloat64(trainings.WithLabelValues("error")) - errBefore; got != 1 {
		t.Fatalf("expected one failed training, got %v", got)
	}
	if got := testutil.ToFloat64(corpusSize); got != 15 {
		t.Fatalf("failed training must not reset corpus size, got %v", got)
	}
	if got := testutil.ToFloat64(featureDimensions); got != 100 {
		t.Fatalf("unexpected feature dimensions %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveRecommendation(PathRanked, 1, 0.6)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "assessor_recommendations_total") {
		t.Fatalf("expected recommendation counter in output")
	}
}
