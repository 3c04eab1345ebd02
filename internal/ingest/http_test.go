package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const sampleYearCSV = "time,latitude,longitude,depth,mag,place\n" +
	"2011-03-11T05:46:24.120Z,38.297,142.373,29,9.1,\"near the east coast of Honshu, Japan\"\n" +
	"2011-03-11T06:15:40.280Z,36.281,141.111,42.6,7.9,\"Honshu, Japan\"\n"

func TestHTTPSource_LoadYear(t *testing.T) {
	var failures atomic.Int32
	failures.Store(1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quakes/11-12.csv":
			// The first request fails to exercise the retry.
			if failures.Add(-1) >= 0 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte(sampleYearCSV))
		case "/quakes/12-13.csv":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/quakes/", []int{2011}, 5*time.Second, HTTPClientConfig{
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
	})
	if got := src.URL(2011); got != server.URL+"/quakes/11-12.csv" {
		t.Errorf("Unexpected URL %s", got)
	}

	events, err := src.LoadYear(context.Background(), 2011)
	if err != nil {
		t.Fatalf("LoadYear failed: %v", err)
	}
	if len(events) != 2 || events[0].Magnitude != 9.1 || events[1].Place != "Honshu, Japan" {
		t.Errorf("Unexpected events %+v", events)
	}

	if _, err := src.LoadYear(context.Background(), 2010); !errors.Is(err, ErrNoSourceForYear) {
		t.Errorf("Expected ErrNoSourceForYear for a 404, got %v", err)
	}
	if _, err := src.LoadYear(context.Background(), 2012); err == nil || errors.Is(err, ErrNoSourceForYear) {
		t.Errorf("Expected a status error for a 403, got %v", err)
	}
}

func TestHTTPSource_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, nil, time.Second, HTTPClientConfig{MaxRetries: 2, RetryDelayBase: time.Millisecond})
	if _, err := src.LoadYear(context.Background(), 2020); err == nil {
		t.Fatal("Expected an error after retries")
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls.Load())
	}
}

func TestHTTPSource_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, nil, time.Second, HTTPClientConfig{MaxRetries: 5, RetryDelayBase: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := src.LoadYear(ctx, 2020); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the deadline to stop retries, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Expected retries to stop promptly")
	}
}
