package audit

import (
	"log/slog"
	"net/netip"
	"testing"
)

func TestClientIP_XForwardedFor(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "203.0.113.50, 70.41.3.18", "")
	want := netip.MustParseAddr("203.0.113.50")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v", ip, want)
	}
}

func TestClientIP_XRealIP(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "", "198.51.100.23")
	want := netip.MustParseAddr("198.51.100.23")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v", ip, want)
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "", "")
	want := netip.MustParseAddr("192.0.2.1")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v", ip, want)
	}
}

func TestClientIP_Precedence(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "203.0.113.50", "198.51.100.23")
	want := netip.MustParseAddr("203.0.113.50")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v (X-Forwarded-For should take precedence)", ip, want)
	}
}

func TestClientIP_XRealIPFallback(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "", "198.51.100.23")
	want := netip.MustParseAddr("198.51.100.23")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v (X-Real-IP should take precedence over RemoteAddr)", ip, want)
	}
}

func TestClientIP_InvalidXFF(t *testing.T) {
	ip := ClientIP("192.0.2.1:12345", "not-an-ip", "")
	want := netip.MustParseAddr("192.0.2.1")
	if ip != want {
		t.Errorf("ClientIP = %v, want %v (should fall back to RemoteAddr)", ip, want)
	}
}

func TestLog_DropsWhenFull(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)
	// Don't start the background goroutine — nothing drains the channel.

	for i := 0; i < bufferSize; i++ {
		w.Log(Entry{Action: "test", TargetType: "test"})
	}

	// The next log should be dropped (non-blocking).
	w.Log(Entry{Action: "dropped", TargetType: "dropped"})

	if len(w.entries) != bufferSize {
		t.Errorf("buffer size = %d, want %d", len(w.entries), bufferSize)
	}
}

func TestLog_SetsTimestampWhenZero(t *testing.T) {
	logger := slog.Default()
	w := NewWriter(nil, logger)

	w.Log(Entry{Action: "create", TargetType: "package", TargetID: "example.pkg"})

	entry := <-w.entries
	if entry.At.IsZero() {
		t.Error("At should be set when not provided")
	}
	if entry.Action != "create" {
		t.Errorf("Action = %q, want %q", entry.Action, "create")
	}
	if entry.TargetType != "package" {
		t.Errorf("TargetType = %q, want %q", entry.TargetType, "package")
	}
}
