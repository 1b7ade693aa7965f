package clickhouse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host: "ch", Port: 9000, Database: "stockx", User: "default",
		DialTimeout: 5 * time.Second, MaxExecTime: 30 * time.Second,
	})
	assert.Equal(t, "clickhouse://default:@ch:9000/stockx?dial_timeout=5s&max_execution_time=30", dsn)

	dsn = buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "stockx", UseHTTP: true})
	assert.True(t, strings.HasPrefix(dsn, "http://"))
	assert.NotContains(t, dsn, "?")
}

func TestSeriesSchema(t *testing.T) {
	stmts := SeriesSchema("stockx")
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "stockx.observations")
	assert.Contains(t, stmts[1], "ReplacingMergeTree(version)")
}
