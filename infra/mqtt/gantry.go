package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/tolltag/core/model"
	"github.com/kilianp07/tolltag/core/request"
	"github.com/kilianp07/tolltag/core/toll"
	"github.com/kilianp07/tolltag/infra/logger"
)

// Quoter prices vehicles on behalf of the gantry.
type Quoter interface {
	Quote(ctx context.Context, source string, v any) (toll.Quote, error)
	Reject(ctx context.Context, source string, err error) (toll.Quote, error)
}

// Passage is the payload published by a gantry when a vehicle passes.
// The vehicle fields follow request.Request and may also be given flat.
type Passage struct {
	PassageID string
	Request   *request.Request
}

// TollReply is published back to the gantry for every passage.
type TollReply struct {
	PassageID string `json:"passage_id,omitempty"`
	QuoteID   string `json:"quote_id"`
	Vehicle   string `json:"vehicle,omitempty"`
	Rule      string `json:"rule,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// PassageTopic returns the wildcard topic gantries publish passages on.
func PassageTopic(prefix string) string { return prefix + "/gantry/+/passage" }

// TollTopic returns the topic tolls for gantryID are published on.
func TollTopic(prefix, gantryID string) string {
	return fmt.Sprintf("%s/gantry/%s/toll", prefix, gantryID)
}

// Gantry listens for vehicle passages over MQTT and answers each one with a
// priced toll or an error.
type Gantry struct {
	cli        pahoClient
	cfg        Config
	quoter     Quoter
	log        logger.Logger
	backoff    time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	closed     bool
	wg         sync.WaitGroup
	subscribed chan struct{}
}

// NewGantry connects to the broker and subscribes to the passage topic. The
// subscription is renewed on every reconnect.
func NewGantry(cfg Config, q Quoter) (*Gantry, error) {
	if q == nil {
		return nil, errors.New("gantry requires a quoter")
	}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_gantry")
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gantry{
		cfg:        cfg,
		quoter:     q,
		log:        log,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		ctx:        ctx,
		cancel:     cancel,
		subscribed: make(chan struct{}),
	}
	var once sync.Once
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		topic := PassageTopic(cfg.TopicPrefix)
		if token := c.Subscribe(topic, cfg.qos("passage"), g.onPassage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			return
		}
		log.Infof("subscribed to %s", topic)
		once.Do(func() { close(g.subscribed) })
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		cancel()
		return nil, token.Error()
	}
	g.cli = c
	return g, nil
}

// Subscribed is closed once the first passage subscription succeeded.
func (g *Gantry) Subscribed() <-chan struct{} { return g.subscribed }

// Close stops handling passages, waits for in-flight replies and disconnects.
func (g *Gantry) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()
	g.cancel()
	g.wg.Wait()
	if g.cli != nil && g.cli.IsConnected() {
		g.cli.Disconnect(250)
	}
}

func (g *Gantry) onPassage(_ paho.Client, msg paho.Message) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()
	defer g.wg.Done()

	gantryID, ok := gantryFromTopic(g.cfg.TopicPrefix, msg.Topic())
	if !ok {
		g.log.Warnf("ignoring passage on unexpected topic %s", msg.Topic())
		return
	}
	source := "gantry/" + gantryID
	reply := g.price(source, msg.Payload())
	payload, err := json.Marshal(reply)
	if err != nil {
		g.log.Errorf("encode toll reply: %v", err)
		return
	}
	topic := TollTopic(g.cfg.TopicPrefix, gantryID)
	if err := publishWithRetry(g.cli, g.log, topic, g.cfg.qos("toll"), payload, g.cfg.MaxRetries, g.backoff); err != nil {
		g.log.Errorf("toll for passage %s not delivered: %v", reply.PassageID, err)
		return
	}
	g.log.Debugw("toll published", map[string]any{"topic": topic, "quote_id": reply.QuoteID, "passage_id": reply.PassageID})
}

func (g *Gantry) price(source string, payload []byte) TollReply {
	p, err := ParsePassage(payload)
	var v model.Vehicle
	if err == nil {
		v, err = request.Decode(p.Request)
	}
	var q toll.Quote
	if err != nil {
		q, err = g.quoter.Reject(g.ctx, source, err)
	} else {
		q, err = g.quoter.Quote(g.ctx, source, v)
	}
	reply := TollReply{PassageID: p.PassageID, QuoteID: q.ID}
	if err != nil {
		reply.Error = err.Error()
		reply.ErrorKind = toll.ErrorKind(err)
		return reply
	}
	reply.Vehicle = q.Kind.String()
	reply.Rule = string(q.Rule)
	reply.Amount = q.Amount.Decimal()
	return reply
}

// ParsePassage decodes a passage payload. An empty or null payload is a
// missing vehicle; anything that is not a JSON object is unrecognized.
func ParsePassage(payload []byte) (Passage, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Passage{}, toll.ErrNullVehicle
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Passage{}, fmt.Errorf("%w: %v", toll.ErrUnrecognizedVehicleType, err)
	}
	if raw == nil {
		return Passage{}, toll.ErrNullVehicle
	}
	var p Passage
	if id, ok := raw["passage_id"]; ok {
		p.PassageID = fmt.Sprint(id)
		delete(raw, "passage_id")
	}
	p.Request = request.FromMap(raw)
	return p, nil
}

func gantryFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/gantry/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/passage")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
