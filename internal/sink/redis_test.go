package sink

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSink_UnmarshalableRecordsBecomeRowErrors(t *testing.T) {
	// No command reaches the wire: every record fails to marshal.
	s := &RedisSink{client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}

	rowErrs, err := s.Deliver(context.Background(), "taxirides", []interface{}{
		make(chan int), // not JSON-serializable
		make(chan int),
	})

	require.NoError(t, err)
	require.Len(t, rowErrs, 2)
	assert.Equal(t, 0, rowErrs[0].Index)
	assert.Equal(t, 1, rowErrs[1].Index)
}

func TestNewRedisSink_Unreachable(t *testing.T) {
	s, err := NewRedisSink(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
	assert.Nil(t, s)
}
