package monitoring

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.Received()
	m.Received()
	m.DecodeFailed()
	m.SetBufferLength(5)

	if got := testutil.ToFloat64(m.FramesReceived); got != 2 {
		t.Errorf("received = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DecodeFailures); got != 1 {
		t.Errorf("decode failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BufferLength); got != 5 {
		t.Errorf("buffer = %v, want 5", got)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "framefade_frames_received_total 2") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Received()
	m.Committed()
	m.SetBufferLength(3)
}
