package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter is an in-memory per-IP token-bucket limiter.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

// NewIPLimiter creates a limiter allowing r requests per second with
// burst capacity b, and starts a goroutine that evicts idle visitors.
func NewIPLimiter(r rate.Limit, b int) *IPLimiter {
	l := &IPLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
	go l.cleanupVisitors()
	return l
}

func (l *IPLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > 5*time.Minute {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *IPLimiter) getVisitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(l.rate, l.burst)
		l.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Handler returns the fiber middleware enforcing the limit.
func (l *IPLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.getVisitor(c.IP()).Allow() {
			return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		}
		return c.Next()
	}
}
