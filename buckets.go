package main

import (
	"guildpass/config"
	"guildpass/ratelimit"
)

// Please place all custom buckets here

// callbackBucket limits how often one client may hit /callback. Every hit costs
// an outbound token exchange.
func callbackBucket(cfg config.Server) ratelimit.Bucket {
	return ratelimit.Bucket{
		BucketName: "callback",
		Requests:   cfg.RatelimitReqs,
		Time:       cfg.RatelimitWindow(),
		Bypass:     cfg.RatelimitReqs == 0,
	}
}
