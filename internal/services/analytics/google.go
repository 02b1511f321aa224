package analytics

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const collectURL = "https://www.google-analytics.com/collect"

// Client fires best-effort measurement-protocol hits. Failures and
// latency never affect the caller beyond the returned duration, which is
// recorded for telemetry only.
type Client struct {
	propertyID string
	client     *resty.Client
}

func NewClient(propertyID string) *Client {
	client := resty.New()
	client.SetTimeout(2 * time.Second)

	return &Client{
		propertyID: propertyID,
		client:     client,
	}
}

// TrackItem pings one item fetch as a pageview-style hit and returns how
// long the ping took. A missing property id or a failed delivery is not an
// error.
func (c *Client) TrackItem(itemID int) time.Duration {
	if c.propertyID == "" {
		return 0
	}

	start := time.Now()
	_, _ = c.client.R().
		SetFormData(map[string]string{
			"v":   "1",
			"tid": c.propertyID,
			"cid": uuid.NewString(),
			"t":   "pageview",
			"dp":  fmt.Sprintf("/companion/item/%d", itemID),
		}).
		Post(collectURL)
	return time.Since(start)
}

// TrackEvent pings a named event, used for error accounting.
func (c *Client) TrackEvent(name string) {
	if c.propertyID == "" {
		return
	}
	_, _ = c.client.R().
		SetFormData(map[string]string{
			"v":   "1",
			"tid": c.propertyID,
			"cid": uuid.NewString(),
			"t":   "pageview",
			"dp":  fmt.Sprintf("/companion/%s", name),
		}).
		Post(collectURL)
}
