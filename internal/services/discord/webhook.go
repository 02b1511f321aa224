package discord

import (
	"crypto/md5"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts alert messages to a Discord webhook. Identical messages
// are delivered at most once per cooldown window; the webhook itself has
// no dedup responsibility.
type Webhook struct {
	url      string
	cooldown time.Duration
	client   *resty.Client

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewWebhook(url string, cooldown time.Duration) *Webhook {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &Webhook{
		url:      url,
		cooldown: cooldown,
		client:   client,
		sent:     make(map[string]time.Time),
	}
}

// Send delivers the message fire-and-forget. Delivery failures are logged
// and otherwise ignored.
func (w *Webhook) Send(message string) {
	if w.url == "" {
		return
	}
	if !w.shouldSend(message) {
		return
	}

	resp, err := w.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": message}).
		Post(w.url)
	if err != nil {
		log.Printf("[discord] failed to deliver alert: %v", err)
		return
	}
	if resp.StatusCode() >= 400 {
		log.Printf("[discord] webhook returned status %d", resp.StatusCode())
	}
}

// shouldSend records the message hash and reports whether the same content
// was already delivered within the cooldown window.
func (w *Webhook) shouldSend(message string) bool {
	key := fmt.Sprintf("%x", md5.Sum([]byte(message)))
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if last, ok := w.sent[key]; ok && now.Sub(last) < w.cooldown {
		return false
	}
	w.sent[key] = now

	// drop expired entries so the map does not grow unbounded
	for k, t := range w.sent {
		if now.Sub(t) >= w.cooldown {
			delete(w.sent, k)
		}
	}
	return true
}
