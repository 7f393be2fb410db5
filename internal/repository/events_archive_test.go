package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NSEScan/internal/domain/models"
	domrepo "NSEScan/internal/domain/repository"
	pkgkafka "NSEScan/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics   []string
	messages []pkgkafka.Message
	err      error
	closed   bool
}

func (p *recordingPublisher) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, msgs...)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestKafkaEventPublisherKeysByTradeDate(t *testing.T) {
	rec := &recordingPublisher{}
	p := &KafkaEventPublisher{producer: rec, snapshotTopic: "snaps", backtestTopic: "runs"}

	require.NoError(t, p.PublishSnapshot(context.Background(), &models.SignalSnapshot{ID: "s1", ISTDate: "2025-03-05"}))
	require.NoError(t, p.PublishBacktestRun(context.Background(), &models.BacktestRun{ID: "r1", TradeDate: "2025-03-06"}))

	require.Len(t, rec.messages, 2)
	assert.Equal(t, []string{"snaps", "runs"}, rec.topics)
	assert.Equal(t, "2025-03-05", string(rec.messages[0].Key))
	assert.Equal(t, EventSnapshotSaved, rec.messages[0].Headers["event"])
	assert.Equal(t, "s1", rec.messages[0].Headers["id"])
	assert.Equal(t, "2025-03-06", string(rec.messages[1].Key))
	assert.Equal(t, EventBacktestPersisted, rec.messages[1].Headers["event"])

	require.NoError(t, p.Close())
	assert.True(t, rec.closed)
}

func TestKafkaEventPublisherPropagatesErrors(t *testing.T) {
	p := &KafkaEventPublisher{producer: &recordingPublisher{err: errors.New("broker down")}, snapshotTopic: "snaps"}
	err := p.PublishSnapshot(context.Background(), &models.SignalSnapshot{ID: "s1"})
	assert.EqualError(t, err, "broker down")
}

func TestNoopEventPublisher(t *testing.T) {
	var p domrepo.EventPublisher = NoopEventPublisher{}
	assert.NoError(t, p.PublishSnapshot(context.Background(), &models.SignalSnapshot{}))
	assert.NoError(t, p.PublishBacktestRun(context.Background(), &models.BacktestRun{}))
	assert.NoError(t, p.Close())
}

func TestBuildCandleInsertSkipsInvalidBars(t *testing.T) {
	ts := time.Date(2025, 3, 5, 9, 15, 0, 0, time.UTC)
	candles := []models.Candle{
		{Timestamp: ts, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{Timestamp: ts.Add(time.Minute), Open: 100, High: 98, Low: 99, Close: 100, Volume: 10},
		{Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Timestamp: ts.Add(2 * time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 0},
	}

	q, args := buildCandleInsert("nsescan.intraday_candles", "TCS", domrepo.Interval1m, candles)

	assert.True(t, strings.HasPrefix(q, "INSERT INTO nsescan.intraday_candles (symbol, interval, ts, open, high, low, close, volume) VALUES "))
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 16)
	assert.Equal(t, "TCS", args[0])
	assert.Equal(t, "1m", args[1])
	assert.Equal(t, ts, args[2])
	assert.Equal(t, ts.Add(2*time.Minute), args[10])
}

func TestBuildCandleInsertEmpty(t *testing.T) {
	_, args := buildCandleInsert("t", "TCS", domrepo.Interval5m, nil)
	assert.Empty(t, args)
}

func TestCandleArchiveSchemaUsesDatabase(t *testing.T) {
	stmts := CandleArchiveSchema("replay")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS replay", stmts[0])
	assert.Contains(t, stmts[1], "replay.intraday_candles")
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
	assert.Contains(t, stmts[1], "ORDER BY (symbol, interval, ts)")
}
