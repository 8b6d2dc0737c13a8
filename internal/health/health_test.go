package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestCheckBasic(t *testing.T) {
	cases := []struct {
		name string
		db   Pinger
		want string
	}{
		{"memory store", nil, "healthy"},
		{"database up", fakePinger{}, "healthy"},
		{"database down", fakePinger{err: errors.New("connection refused")}, "unhealthy"},
	}
	for _, tc := range cases {
		status := NewHealthChecker(tc.db, "test").CheckBasic()
		if status.Status != tc.want {
			t.Fatalf("%s: status = %q, want %q", tc.name, status.Status, tc.want)
		}
		if (tc.db == nil) != (status.Database == nil) {
			t.Fatalf("%s: database section = %+v", tc.name, status.Database)
		}
		// no redis client in tests
		if status.Redis != "unavailable" {
			t.Fatalf("%s: redis = %q", tc.name, status.Redis)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
		3 << 30:         "3.0 GB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
