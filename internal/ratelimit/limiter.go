// Package ratelimit throttles booking creation per customer and per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	Window           time.Duration // Length of a counting window (default: 1m)
	MaxPerCustomer   int           // Booking attempts per customer per window (default: 10)
	MaxPerIP         int           // Booking attempts per IP per window (default: 30)
	CustomerCooldown time.Duration // Minimum gap between two attempts by one customer (0 disables)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:         time.Minute,
		MaxPerCustomer: 10,
		MaxPerIP:       30,
	}
}

// ConfigForRate builds a config allowing perMinute attempts per customer and
// three times that per IP. Non-positive values fall back to the defaults.
func ConfigForRate(perMinute int) *Config {
	cfg := DefaultConfig()
	if perMinute > 0 {
		cfg.MaxPerCustomer = perMinute
		cfg.MaxPerIP = perMinute * 3
	}
	return cfg
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

type entry struct {
	count   int
	firstAt time.Time // First request in window
	lastAt  time.Time // Most recent request (for cooldown)
}

func (e *entry) expired(now time.Time, window time.Duration) bool {
	return now.Sub(e.firstAt) >= window
}

// Limiter implements fixed-window limits keyed by customer and by IP.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of customer ID or IP
	byCustomer map[string]*entry
	byIP       map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byCustomer:    make(map[string]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Allow checks and records in one step. Denied attempts are not counted.
func (l *Limiter) Allow(customer, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	custKey, ipKey := l.keys(customer, ip)

	l.mu.Lock()
	defer l.mu.Unlock()
	res := l.check(custKey, ipKey, now)
	if res.Allowed {
		l.record(custKey, ipKey, now)
	}
	return res
}

func (l *Limiter) check(custKey, ipKey string, now time.Time) LimitResult {
	window := l.config.Window

	if e := l.byCustomer[custKey]; e != nil {
		if cd := l.config.CustomerCooldown; cd > 0 {
			if elapsed := now.Sub(e.lastAt); elapsed < cd {
				return LimitResult{RetryAfter: cd - elapsed, Reason: "cooldown"}
			}
		}
		if !e.expired(now, window) && l.config.MaxPerCustomer > 0 && e.count >= l.config.MaxPerCustomer {
			return LimitResult{RetryAfter: window - now.Sub(e.firstAt), Reason: "customer_limit"}
		}
	}

	if e := l.byIP[ipKey]; e != nil {
		if !e.expired(now, window) && l.config.MaxPerIP > 0 && e.count >= l.config.MaxPerIP {
			return LimitResult{RetryAfter: window - now.Sub(e.firstAt), Reason: "ip_limit"}
		}
	}

	return LimitResult{Allowed: true}
}

func (l *Limiter) record(custKey, ipKey string, now time.Time) {
	bump(l.byCustomer, custKey, now, l.config.Window)
	bump(l.byIP, ipKey, now, l.config.Window)
}

func bump(m map[string]*entry, key string, now time.Time, window time.Duration) {
	e := m[key]
	if e == nil || e.expired(now, window) {
		m[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func (l *Limiter) keys(customer, ip string) (string, string) {
	return l.hashKey("customer:", normalizeIdentifier(customer)), l.hashKey("ip:", ip)
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	maxAge := l.config.Window
	if l.config.CustomerCooldown > maxAge {
		maxAge = l.config.CustomerCooldown
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.byCustomer {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.byCustomer, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.byIP, k)
		}
	}
}

// ClientIP returns the address used to key per-IP limits. Forwarding headers
// are only read when trustProxy is set; the rightmost public X-Forwarded-For
// entry wins since that is the one our proxy appended.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop != "" && !internalAddr(hop) {
					return hop
				}
			}
			return strings.TrimSpace(hops[len(hops)-1])
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr.Unmap().String()
	}
	return r.RemoteAddr
}

// internalAddr reports whether s is a private, loopback or link-local address.
func internalAddr(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast()
}

// LogRateLimitExceeded logs a rejected booking attempt.
func LogRateLimitExceeded(ctx context.Context, customer, ip string, res LimitResult) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("customer", customer).
		Str("ip", ip).
		Str("reason", res.Reason).
		Dur("retry_after", res.RetryAfter).
		Msg("Booking rate limit exceeded")
}
