package sink

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
)

func TestMQTTSink_DeliverWhenDisconnected(t *testing.T) {
	client := mqtt.NewClient(mqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1"))
	s := &MQTTSink{client: client, qos: 0, timeout: time.Second}

	_, err := s.Deliver(context.Background(), "taxirides", []interface{}{map[string]string{}})
	assert.Error(t, err)
}
