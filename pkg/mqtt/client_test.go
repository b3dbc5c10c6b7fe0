package mqtt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "grocy/orders/order.created", Topic("grocy/", "orders", "order.created"))
	assert.Equal(t, "orders", Topic("", "orders"))

	c := NewClient(&Config{TopicPrefix: "shop/"}, nil)
	assert.Equal(t, "shop/orders/x", c.Topic("orders", "x"))
}

func TestEncode(t *testing.T) {
	data, err := Encode(map[string]string{"order_no": "M1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_no":"M1"}`, string(data))

	data, err = Encode("raw")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)

	_, err = Encode(make(chan int))
	assert.Error(t, err)
}

func TestPublish_NotConnected(t *testing.T) {
	c := NewClient(&Config{}, nil)
	assert.False(t, c.IsConnected())
	assert.Error(t, c.Publish(context.Background(), "t", "x"))
	c.Disconnect()
}
