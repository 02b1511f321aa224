package companion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request kinds, also the path suffix of the upstream call.
const (
	KindPrices  = "prices"
	KindHistory = "history"
)

// Request is one logical Sight request. Key correlates the request across
// both settle passes and into the harvested result map; it carries the
// run-scoped id so concurrent runs never collide.
type Request struct {
	Key   string
	Kind  string
	Item  int
	Token string
}

// Response is the raw settled response for one key. Body is only
// meaningful when Err is nil.
type Response struct {
	Key  string
	Body []byte
	Err  error
}

// Client talks to the companion Sight API. Every batch call issues its
// requests concurrently and joins before returning; callers drive the
// two-phase submit/harvest protocol on top of it.
type Client struct {
	baseURL string
	client  *resty.Client
}

func NewClient(baseURL string) *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

// Settle fires the whole batch concurrently and waits for every request
// to finish before returning. No result is read while the batch is still
// in flight.
func (c *Client) Settle(ctx context.Context, reqs []Request) map[string]Response {
	results := make([]Response, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = c.do(ctx, req)
		}(i, req)
	}
	wg.Wait()

	settled := make(map[string]Response, len(reqs))
	for _, res := range results {
		settled[res.Key] = res
	}
	return settled
}

func (c *Client) do(ctx context.Context, req Request) Response {
	url := fmt.Sprintf("%s/market/items/%d/%s", c.baseURL, req.Item, req.Kind)

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(req.Token).
		Get(url)
	if err != nil {
		return Response{Key: req.Key, Err: err}
	}
	if resp.StatusCode() >= 400 {
		return Response{Key: req.Key, Err: fmt.Errorf("sight returned status %d", resp.StatusCode())}
	}
	return Response{Key: req.Key, Body: resp.Body()}
}
