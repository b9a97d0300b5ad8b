package api

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reelstats/reelstats/telemetry"
)

// chartCache memoizes chart-data responses keyed by date range. Every
// successful upload or clear purges it, so cached entries always reflect the
// current table contents.
type chartCache struct {
	entries *lru.Cache[string, chartData]
}

func newChartCache(size int) (*chartCache, error) {
	entries, err := lru.New[string, chartData](size)
	if err != nil {
		return nil, err
	}
	return &chartCache{entries: entries}, nil
}

func chartCacheKey(startDate, endDate string) string {
	return startDate + "|" + endDate
}

func (c *chartCache) get(key string) (chartData, bool) {
	data, ok := c.entries.Get(key)
	if ok {
		telemetry.ChartCacheHitsTotal.Inc()
	} else {
		telemetry.ChartCacheMissesTotal.Inc()
	}
	return data, ok
}

func (c *chartCache) add(key string, data chartData) {
	c.entries.Add(key, data)
	telemetry.ChartCacheEntries.Set(float64(c.entries.Len()))
}

func (c *chartCache) purge() {
	c.entries.Purge()
	telemetry.ChartCacheEntries.Set(0)
}
