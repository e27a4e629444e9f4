package client

import (
	"context"
	"net/url"

	"github.com/rickgao/midl-pulse/internal/model"
)

// Profile fetches the profile for address.
func (c *Client) Profile(ctx context.Context, address string) (*model.AddressProfile, error) {
	var p model.AddressProfile
	if err := c.get(ctx, "/api/profile", url.Values{"address": {address}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// History fetches the equity series for address over tf.
func (c *Client) History(ctx context.Context, address string, tf model.Timeframe) ([]model.EquityPoint, error) {
	q := url.Values{"address": {address}}
	if tf != "" {
		q.Set("timeframe", string(tf))
	}

	var points []model.EquityPoint
	if err := c.get(ctx, "/api/history", q, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// Holdings fetches the token holdings for address, highest value first.
func (c *Client) Holdings(ctx context.Context, address string) ([]model.TokenHolding, error) {
	var holdings []model.TokenHolding
	if err := c.get(ctx, "/api/holdings", url.Values{"address": {address}}, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// LatestBlock fetches a fresh block sample.
func (c *Client) LatestBlock(ctx context.Context) (*model.BlockSample, error) {
	var b model.BlockSample
	if err := c.get(ctx, "/api/block", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// NetworkStats fetches fresh network stats.
func (c *Client) NetworkStats(ctx context.Context) (*model.NetworkStats, error) {
	var s model.NetworkStats
	if err := c.get(ctx, "/api/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Snapshot fetches the server's cached stats snapshot.
func (c *Client) Snapshot(ctx context.Context) (*model.StatsSnapshot, error) {
	var s model.StatsSnapshot
	if err := c.get(ctx, "/api/stats/snapshot", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RecentTape fetches the recent tape events, newest first.
func (c *Client) RecentTape(ctx context.Context) ([]model.TxEvent, error) {
	var events []model.TxEvent
	if err := c.get(ctx, "/api/tape/recent", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (*model.Health, error) {
	var h model.Health
	if err := c.get(ctx, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
