package rate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const chartBody = `{
	"chart": {
		"result": [{
			"timestamp": [1717113600, 1717200000],
			"indicators": {
				"quote": [{"close": [5.18, 5.22]}]
			}
		}],
		"error": null
	}
}`

func TestUSDBRL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "USDBRL=X") {
			t.Errorf("expected USDBRL=X in path, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(chartBody))
	}))
	defer ts.Close()

	s := NewService(WithClient(ts.Client()), WithChartEndpoint(ts.URL+"/chart/%s?period1=%s&period2=%s"))

	rate, err := s.USDBRL(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 5.22 {
		t.Errorf("expected most recent close 5.22, got %f", rate)
	}
}

func TestUSDBRL_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	s := NewService(WithClient(ts.Client()), WithChartEndpoint(ts.URL+"/chart/%s?period1=%s&period2=%s"))

	if _, err := s.USDBRL(context.Background()); err == nil {
		t.Fatal("expected error when upstream is down")
	}
}

func TestUSDBRL_NoData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	}))
	defer ts.Close()

	s := NewService(WithClient(ts.Client()), WithChartEndpoint(ts.URL+"/chart/%s?period1=%s&period2=%s"))

	if _, err := s.USDBRL(context.Background()); err == nil {
		t.Fatal("expected error on empty result")
	}
}
