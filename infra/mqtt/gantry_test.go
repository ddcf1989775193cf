package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/kilianp07/tolltag/core/logger"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/internal/eventbus"
)

func newTestGantry(t *testing.T, cfg Config) (*Gantry, *mockClient, *eventbus.TypedBus[toll.QuoteEvent]) {
	t.Helper()
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
	bus := eventbus.NewTyped[toll.QuoteEvent]()
	svc := toll.NewService(corelogger.NopLogger{}, bus)
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
	}
	g, err := NewGantry(cfg, svc)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, mc, bus
}

func lastReply(t *testing.T, mc *mockClient) (string, TollReply) {
	t.Helper()
	mc.mu.Lock()
	defer mc.mu.Unlock()
	require.NotEmpty(t, mc.published)
	msg := mc.published[len(mc.published)-1]
	var r TollReply
	require.NoError(t, json.Unmarshal(msg.payload, &r))
	return msg.topic, r
}

func TestGantrySubscribesOnConnect(t *testing.T) {
	g, mc, _ := newTestGantry(t, Config{TopicPrefix: "city", QoS: map[string]byte{"passage": 1}})
	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, "city/gantry/+/passage", mc.subscribed[0].topic)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)
	select {
	case <-g.Subscribed():
	case <-time.After(time.Second):
		t.Fatal("subscription not signalled")
	}
}

func TestGantryPricesPassage(t *testing.T) {
	_, mc, bus := newTestGantry(t, Config{QoS: map[string]byte{"toll": 2}})
	events := bus.Subscribe()

	payload := `{"passage_id":"p-1","type":"bus","capacity":90,"riders":15}`
	mc.handler(mc, mockMessage{topic: "tolltag/gantry/north-1/passage", p: []byte(payload)})

	topic, r := lastReply(t, mc)
	assert.Equal(t, "tolltag/gantry/north-1/toll", topic)
	assert.Equal(t, "p-1", r.PassageID)
	assert.Equal(t, "bus", r.Vehicle)
	assert.Equal(t, string(toll.RuleBusLowOccupancy), r.Rule)
	assert.Equal(t, "7.00", r.Amount)
	assert.Empty(t, r.Error)
	assert.NotEmpty(t, r.QuoteID)
	assert.Equal(t, byte(2), mc.published[0].qos)

	ev := <-events
	assert.Equal(t, "gantry/north-1", ev.Quote.Source)
	assert.NoError(t, ev.Err)
}

func TestGantryNestedAttributes(t *testing.T) {
	_, mc, _ := newTestGantry(t, Config{})
	payload := `{"type":"delivery_truck","attributes":{"gross_weight_class":7500}}`
	mc.handler(mc, mockMessage{topic: "tolltag/gantry/g2/passage", p: []byte(payload)})
	_, r := lastReply(t, mc)
	assert.Equal(t, "15.00", r.Amount)
	assert.Equal(t, string(toll.RuleTruckHeavy), r.Rule)
}

func TestGantryRejections(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		kind    string
	}{
		{"empty", "", "null_vehicle"},
		{"null", "null", "null_vehicle"},
		{"not json", "this will fail", "unrecognized_vehicle_type"},
		{"unknown type", `{"passage_id":"p-9","type":"scooter"}`, "unrecognized_vehicle_type"},
		{"negative riders", `{"type":"bus","capacity":10,"riders":-1}`, "unrecognized_vehicle_type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, mc, bus := newTestGantry(t, Config{})
			events := bus.Subscribe()
			mc.handler(mc, mockMessage{topic: "tolltag/gantry/west/passage", p: []byte(c.payload)})
			topic, r := lastReply(t, mc)
			assert.Equal(t, "tolltag/gantry/west/toll", topic)
			assert.Equal(t, c.kind, r.ErrorKind)
			assert.NotEmpty(t, r.Error)
			assert.Empty(t, r.Amount)
			ev := <-events
			assert.Error(t, ev.Err)
		})
	}
}

func TestGantryIgnoresForeignTopics(t *testing.T) {
	_, mc, _ := newTestGantry(t, Config{})
	mc.handler(mc, mockMessage{topic: "other/gantry/x/passage", p: []byte(`{"type":"car"}`)})
	mc.handler(mc, mockMessage{topic: "tolltag/gantry/a/b/passage", p: []byte(`{"type":"car"}`)})
	assert.Empty(t, mc.published)
}

func TestGantryRetriesPublish(t *testing.T) {
	_, mc, _ := newTestGantry(t, Config{MaxRetries: 2, BackoffMS: 1})
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}
	mc.handler(mc, mockMessage{topic: "tolltag/gantry/e/passage", p: []byte(`{"type":"taxi","fares":2}`)})
	require.Len(t, mc.published, 2)
	_, r := lastReply(t, mc)
	assert.Equal(t, "3.00", r.Amount)
}

func TestGantryIgnoresPassagesAfterClose(t *testing.T) {
	g, mc, _ := newTestGantry(t, Config{})
	g.Close()
	mc.handler(mc, mockMessage{topic: "tolltag/gantry/e/passage", p: []byte(`{"type":"car"}`)})
	assert.Empty(t, mc.published)
}

func TestNewGantryConnectError(t *testing.T) {
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return failingConnect{mc} }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()
	_, err := NewGantry(Config{Broker: "tcp://localhost:1883"}, toll.NewService(corelogger.NopLogger{}, nil))
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if _, err := NewGantry(Config{}, nil); err == nil {
		t.Fatalf("expected error without quoter")
	}
}

type failingConnect struct{ *mockClient }

func (f failingConnect) Connect() paho.Token { return &dummyToken{err: errors.New("refused")} }

func TestParsePassage(t *testing.T) {
	p, err := ParsePassage([]byte(`{"passage_id":42,"type":"car","passengers":2}`))
	require.NoError(t, err)
	assert.Equal(t, "42", p.PassageID)
	assert.Equal(t, "car", p.Request.Type)
	assert.NotContains(t, p.Request.Attributes, "passage_id")

	_, err = ParsePassage([]byte(" "))
	assert.ErrorIs(t, err, toll.ErrNullVehicle)
	_, err = ParsePassage([]byte(`[1,2]`))
	assert.ErrorIs(t, err, toll.ErrUnrecognizedVehicleType)
}
