package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Paced limits how often a Client is called.
type Paced struct {
	Client
	limiter *rate.Limiter
}

// NewPaced wraps c so that it is called at most requestsPerMinute times per
// minute. A non-positive rate returns c unchanged.
func NewPaced(c Client, requestsPerMinute int) Client {
	if requestsPerMinute <= 0 {
		return c
	}
	return &Paced{
		Client:  c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

func (p *Paced) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}
	return p.Client.Complete(ctx, req)
}

// Close closes the wrapped client.
func (p *Paced) Close() error {
	return Close(p.Client)
}
