package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSink appends each record to the stream's Redis stream via XADD,
// pipelined per batch.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink connects to Redis and verifies the connection with a ping.
func NewRedisSink(ctx context.Context, addr, password string, db int) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisSink{client: client}, nil
}

// Deliver pipelines one XADD per record. Marshal failures and per-command
// errors become row errors; a pipeline that failed wholesale is a transport
// error.
func (s *RedisSink) Deliver(ctx context.Context, stream string, records []interface{}) ([]RowError, error) {
	pipe := s.client.Pipeline()
	var rowErrs []RowError
	cmds := make([]*redis.StringCmd, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: err.Error()})
			continue
		}
		cmds[i] = pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{"payload": payload},
		})
	}
	_, execErr := pipe.Exec(ctx)
	failed := 0
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		if err := cmd.Err(); err != nil {
			failed++
			rowErrs = append(rowErrs, RowError{Index: i, Reason: err.Error()})
		}
	}
	if execErr != nil && failed == 0 {
		return nil, execErr
	}
	return rowErrs, nil
}

// Close releases the client's connections.
func (s *RedisSink) Close(ctx context.Context) error {
	return s.client.Close()
}
