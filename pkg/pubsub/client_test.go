package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"topic id", topicResourceName("demo", " sp-order-events "), "projects/demo/topics/sp-order-events"},
		{"topic full", topicResourceName("demo", "projects/other/topics/x"), "projects/other/topics/x"},
		{"subscription id", subscriptionResourceName("demo", "analytics"), "projects/demo/subscriptions/analytics"},
		{"subscription given as topic", subscriptionResourceName("demo", "projects/other/topics/x"), "projects/demo/subscriptions/projects/other/topics/x"},
		{"empty name", topicResourceName("demo", " "), ""},
		{"missing project", subscriptionResourceName("", "analytics"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.got)
		})
	}
}

func TestSubscriptionNamesDeduplicates(t *testing.T) {
	names := subscriptionNames(config.PubSubConfig{OrdersSubscription: "orders-sub"})
	require.Equal(t, []string{"orders-sub"}, names)

	names = subscriptionNames(config.PubSubConfig{OrdersSubscription: "orders-sub", AnalyticsSubscription: "analytics-sub"})
	require.Equal(t, []string{"orders-sub", "analytics-sub"}, names)

	require.Empty(t, subscriptionNames(config.PubSubConfig{}))
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "t"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "demo"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errTopicRequired)
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.OrdersPublisher())
	require.Nil(t, c.AnalyticsSubscription())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
}
