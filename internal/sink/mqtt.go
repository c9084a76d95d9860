package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTSink publishes one JSON message per record on the stream's topic.
type MQTTSink struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
}

// NewMQTTSink connects to the broker and blocks until the connection is
// established or times out.
func NewMQTTSink(broker, clientID string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return &MQTTSink{client: client, qos: 0, timeout: mqttPublishTimeout}, nil
}

// Deliver publishes each record individually; failed publishes become row
// errors so the rest of the batch still goes out.
func (s *MQTTSink) Deliver(ctx context.Context, stream string, records []interface{}) ([]RowError, error) {
	if !s.client.IsConnected() {
		return nil, fmt.Errorf("mqtt client not connected")
	}
	var rowErrs []RowError
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return rowErrs, err
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: err.Error()})
			continue
		}
		token := s.client.Publish(stream, s.qos, false, payload)
		if !token.WaitTimeout(s.timeout) {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: "publish timed out"})
			continue
		}
		if err := token.Error(); err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, Reason: err.Error()})
		}
	}
	return rowErrs, nil
}

// Close disconnects after letting in-flight messages drain.
func (s *MQTTSink) Close(ctx context.Context) error {
	s.client.Disconnect(250)
	return nil
}
