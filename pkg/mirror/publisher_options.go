package mirror

import "time"

type Option func(p *Publisher)

// WithScale sets the upscale factor, fixed for the lifetime of the publisher.
func WithScale(scale int) Option {
	return func(p *Publisher) {
		p.scale = scale
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}
