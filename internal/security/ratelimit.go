package security

import (
	"sync"
	"time"
)

// RateLimiter allows a fixed number of tool calls per client within a sliding window
type RateLimiter struct {
	clients  map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	burstMax int
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the maximum number of calls allowed per window
	RequestsPerWindow int
	// WindowDuration is the duration of the rate limit window
	WindowDuration time.Duration
	// BurstMax caps calls within any one second. Zero disables the cap.
	BurstMax int
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 60,
		WindowDuration:    time.Minute,
		BurstMax:          10,
	}
}

// RateLimitInfo contains rate limit information for response headers
type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop. Call Stop to end it.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(config, time.Now)
	go rl.cleanup(5 * time.Minute)
	return rl
}

func newRateLimiter(config RateLimitConfig, now func() time.Time) *RateLimiter {
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = DefaultRateLimitConfig().RequestsPerWindow
	}
	if config.WindowDuration <= 0 {
		config.WindowDuration = time.Minute
	}
	return &RateLimiter{
		clients:  make(map[string][]time.Time),
		limit:    config.RequestsPerWindow,
		window:   config.WindowDuration,
		burstMax: config.BurstMax,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow records a call for key when it is within limits.
func (rl *RateLimiter) Allow(key string) (RateLimitInfo, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	calls := rl.prune(key, now)

	allowed := len(calls) < rl.limit
	if allowed && rl.burstMax > 0 {
		burstCutoff := now.Add(-time.Second)
		burst := 0
		for _, t := range calls {
			if t.After(burstCutoff) {
				burst++
			}
		}
		allowed = burst < rl.burstMax
	}

	if allowed {
		calls = append(calls, now)
		rl.clients[key] = calls
	}

	info := RateLimitInfo{
		Limit:     rl.limit,
		Remaining: rl.limit - len(calls),
		ResetAt:   now,
	}
	if len(calls) > 0 {
		info.ResetAt = calls[0].Add(rl.window)
	}
	return info, allowed
}

// prune drops calls outside the window. Caller holds mu.
func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	calls := rl.clients[key]
	i := 0
	for i < len(calls) && !calls[i].After(cutoff) {
		i++
	}
	calls = calls[i:]
	if len(calls) == 0 {
		delete(rl.clients, key)
		return nil
	}
	rl.clients[key] = calls
	return calls
}

// Reset forgets all calls for key
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, key)
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// cleanup periodically removes idle clients
func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key := range rl.clients {
				rl.prune(key, now)
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}
