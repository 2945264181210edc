package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_CustomerLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 3, MaxPerIP: 100, Clock: clock})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if res := limiter.Allow("customer-1", "203.0.113.10"); !res.Allowed {
			t.Fatalf("attempt %d should be allowed, got %+v", i+1, res)
		}
	}

	res := limiter.Allow("customer-1", "203.0.113.10")
	if res.Allowed {
		t.Fatal("4th attempt should be denied")
	}
	if res.Reason != "customer_limit" {
		t.Errorf("Reason = %q, want customer_limit", res.Reason)
	}
	if res.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", res.RetryAfter)
	}

	// Another customer from the same IP is unaffected
	if res := limiter.Allow("customer-2", "203.0.113.10"); !res.Allowed {
		t.Errorf("other customer should be allowed, got %+v", res)
	}

	clock.Advance(20 * time.Second)
	res = limiter.Allow("customer-1", "203.0.113.10")
	if res.Allowed {
		t.Fatal("should still be denied within the window")
	}
	if res.RetryAfter != 40*time.Second {
		t.Errorf("RetryAfter = %v, want 40s", res.RetryAfter)
	}

	clock.Advance(40 * time.Second)
	if res := limiter.Allow("customer-1", "203.0.113.10"); !res.Allowed {
		t.Errorf("should be allowed after window reset, got %+v", res)
	}
}

func TestAllow_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 100, MaxPerIP: 2, Clock: clock})
	defer limiter.Close()

	limiter.Allow("a", "203.0.113.20")
	limiter.Allow("b", "203.0.113.20")

	res := limiter.Allow("c", "203.0.113.20")
	if res.Allowed {
		t.Fatal("third customer on the same IP should be denied")
	}
	if res.Reason != "ip_limit" {
		t.Errorf("Reason = %q, want ip_limit", res.Reason)
	}

	if res := limiter.Allow("c", "203.0.113.21"); !res.Allowed {
		t.Errorf("different IP should be allowed, got %+v", res)
	}
}

func TestAllow_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Window:           time.Minute,
		MaxPerCustomer:   10,
		MaxPerIP:         10,
		CustomerCooldown: 5 * time.Second,
		Clock:            clock,
	})
	defer limiter.Close()

	limiter.Allow("customer-1", "203.0.113.30")
	clock.Advance(2 * time.Second)

	res := limiter.Allow("customer-1", "203.0.113.30")
	if res.Allowed || res.Reason != "cooldown" {
		t.Fatalf("expected cooldown denial, got %+v", res)
	}
	if res.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", res.RetryAfter)
	}

	clock.Advance(3 * time.Second)
	if res := limiter.Allow("customer-1", "203.0.113.30"); !res.Allowed {
		t.Errorf("should be allowed after cooldown, got %+v", res)
	}
}

func TestAllow_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 1, MaxPerIP: 100, Clock: clock})
	defer limiter.Close()

	limiter.Allow("Customer-1", "203.0.113.40")
	if res := limiter.Allow("  customer-1 ", "203.0.113.41"); res.Allowed {
		t.Error("case and whitespace variants should share one bucket")
	}
}

func TestAllow_DeniedAttemptsNotCounted(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 1, MaxPerIP: 2, Clock: clock})
	defer limiter.Close()

	limiter.Allow("customer-1", "203.0.113.60")
	for i := 0; i < 5; i++ {
		limiter.Allow("customer-1", "203.0.113.60")
	}

	// IP has only one recorded attempt, so a second customer still fits
	if res := limiter.Allow("customer-2", "203.0.113.60"); !res.Allowed {
		t.Errorf("denied attempts should not count against the IP, got %+v", res)
	}
}

func TestCleanup(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 5, MaxPerIP: 5, Clock: clock})
	defer limiter.Close()

	limiter.Allow("customer-1", "203.0.113.70")
	clock.Advance(2 * time.Minute)
	limiter.cleanup()

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	if len(limiter.byCustomer) != 0 || len(limiter.byIP) != 0 {
		t.Errorf("stale entries not removed: %d customers, %d ips", len(limiter.byCustomer), len(limiter.byIP))
	}
}

func TestConfigForRate(t *testing.T) {
	tests := []struct {
		name         string
		perMinute    int
		wantCustomer int
		wantIP       int
	}{
		{"explicit rate", 4, 4, 12},
		{"zero uses defaults", 0, 10, 30},
		{"negative uses defaults", -1, 10, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigForRate(tt.perMinute)
			if cfg.MaxPerCustomer != tt.wantCustomer || cfg.MaxPerIP != tt.wantIP {
				t.Errorf("got customer=%d ip=%d, want %d/%d", cfg.MaxPerCustomer, cfg.MaxPerIP, tt.wantCustomer, tt.wantIP)
			}
			if cfg.Window != time.Minute {
				t.Errorf("Window = %v, want 1m", cfg.Window)
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter.config.MaxPerCustomer != 10 {
		t.Error("New(nil) should use default config")
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)
	limiter.Allow("customer-1", "1.2.3.4")

	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Window: time.Minute, MaxPerCustomer: 50, MaxPerIP: 1000, Clock: clock})
	defer limiter.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("customer-1", "192.168.1.1").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50",
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1",
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "IPv6 RemoteAddr",
			headers:    map[string]string{},
			remoteAddr: "[2001:db8::7]:443",
			trustProxy: false,
			expected:   "2001:db8::7",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := ClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInternalAddr(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"169.254.10.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:8.8.8.8", false},
		{"203.0.113.50", false},
		{"2001:4860:4860::8888", false},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := internalAddr(tt.ip); got != tt.expected {
				t.Errorf("internalAddr(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}
