package collector

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/health"
	"github.com/i474232898/station-health/internal/metrics"
	"github.com/i474232898/station-health/internal/weatherlink"
)

// Fetcher retrieves and parses one API response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*weatherlink.Envelope, error)
}

// Credentials identify the station and sign API requests.
type Credentials struct {
	APIKey    string
	APISecret string
	StationID string
}

func (c Credentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.StationID != ""
}

// Collector runs the historic and current API calls of one polling cycle
// and merges their results.
type Collector struct {
	creds           Credentials
	urls            *weatherlink.URLBuilder
	fetcher         Fetcher
	decoder         *weatherlink.Decoder
	pollingInterval time.Duration
	logger          *zap.Logger
}

// New creates a Collector. baseURL may be empty for the public API.
func New(creds Credentials, baseURL string, pollingInterval time.Duration, fetcher Fetcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder := weatherlink.NewDecoder(logger.Named("decoder"))
	decoder.OnError = func(endpoint string) {
		metrics.DecodeErrors.WithLabelValues(endpoint).Inc()
	}

	return &Collector{
		creds:           creds,
		urls:            weatherlink.NewURLBuilder(baseURL, creds.APISecret),
		fetcher:         fetcher,
		decoder:         decoder,
		pollingInterval: pollingInterval,
		logger:          logger,
	}
}

// Poll queries both endpoints and returns the merged record stamped with
// now. Without complete credentials no request is made and only dateTime
// and usUnits are set.
func (c *Collector) Poll(ctx context.Context, now time.Time) health.Record {
	rec := health.NewRecord(now)

	if !c.creds.complete() {
		c.logger.Error("missing a required parameter; check the configuration",
			zap.Bool("api_key_set", c.creds.APIKey != ""),
			zap.Bool("api_secret_set", c.creds.APISecret != ""),
			zap.String("station_id", c.creds.StationID))
		return rec
	}

	t := now.Unix()
	params := weatherlink.NewParams(c.creds.StationID, c.creds.APIKey, t)

	start := t - int64(c.pollingInterval/time.Second)
	historic := c.decoder.Historic(c.fetch(ctx, "historic", c.urls.Historic(params.WithRange(start, t))))
	current := c.decoder.Current(c.fetch(ctx, "current", c.urls.Current(params)))

	return health.Merge(health.Merge(rec, historic), current)
}

// Collect is Poll plus the interval since last, the time of the previous
// saved record. A zero last falls back to the polling interval.
func (c *Collector) Collect(ctx context.Context, now, last time.Time) health.Record {
	rec := c.Poll(ctx, now)
	rec.Interval = Interval(now, last, c.pollingInterval)

	c.logger.Debug("collected record",
		zap.Int64("dateTime", rec.DateTime),
		zap.Int64("interval", rec.Interval),
		zap.Int("fields", rec.Populated()))
	return rec
}

// fetch returns nil when the call fails; the failure is logged and counted.
func (c *Collector) fetch(ctx context.Context, endpoint, url string) *weatherlink.Envelope {
	c.logger.Debug("requesting API data", zap.String("endpoint", endpoint))

	env, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.FetchFailures.WithLabelValues(endpoint).Inc()
		c.logger.Error("API request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil
	}
	return env
}

// Interval returns the whole minutes between last and now, at least 1.
func Interval(now, last time.Time, fallback time.Duration) int64 {
	d := fallback
	if !last.IsZero() {
		d = now.Sub(last)
	}
	m := int64(math.Round(d.Minutes()))
	if m < 1 {
		return 1
	}
	return m
}
