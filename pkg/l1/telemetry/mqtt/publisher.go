package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/regs"
)

// Topic suffixes under <board-id>/.
const (
	TopicMeta      = "meta"
	TopicTelemetry = "telemetry"
)

// Publisher accepts outgoing messages. Queue implements it.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Reporter publishes register snapshots from the main loop.
// Publishing never waits for the broker.
type Reporter struct {
	Publisher Publisher
	Table     *regs.Table
	BoardID   string
	// Every publishes once per Every iterations, 1 if zero.
	Every uint64
}

// Topic returns the full topic of suffix for this board.
func (r *Reporter) Topic(suffix string) string {
	return r.BoardID + "/" + suffix
}

// Control implements fx.Controller.
func (r *Reporter) Control(ctx fx.ControlContext) error {
	every := r.Every
	if every == 0 {
		every = 1
	}
	if ctx.Iteration()%every != 0 {
		return nil
	}
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"iteration": numberValue(float64(ctx.Iteration())),
		"time":      stringValue(ctx.Time().UTC().Format(time.RFC3339Nano)),
		"registers": structValue(Snapshot(r.Table)),
	}}
	payload, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	r.Publisher.PubWith(r.Topic(TopicTelemetry), payload, 0, false)
	return nil
}

// Bridge connects the board to an MQTT broker: retained meta while
// connected and periodical telemetry.
type Bridge struct {
	Reporter
	Queue *Queue
	Build string

	meta []byte
}

// NewBridge creates a Bridge.
func NewBridge(brokerURL string, tbl *regs.Table, boardID, build string) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	meta, err := proto.Marshal(Meta(boardID, build, tbl))
	if err != nil {
		return nil, err
	}
	b := &Bridge{
		Reporter: Reporter{Table: tbl, BoardID: boardID},
		Build:    build,
		meta:     meta,
	}
	opts.SetBinaryWill(topicPrefix+b.Topic(TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("miniboard:" + boardID)
	}
	b.Queue = NewQueue(opts, topicPrefix)
	b.Queue.OnConnect = func(q *Queue) {
		q.PubWith(b.Topic(TopicMeta), b.meta, 1, true)
	}
	b.Publisher = b.Queue
	return b, nil
}

// AddToLoop implements fx.LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, &b.Reporter)
	loop.AddRunnable(fx.NamedRun("telemetry", b))
}

// Run implements fx.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	b.Queue.Connect()
	<-ctx.Done()
	if b.Queue.Client.IsConnected() {
		if !b.Queue.PubWith(b.Topic(TopicMeta), nil, 1, true).WaitTimeout(time.Second) {
			glog.Warning("mqtt: clearing meta timed out")
		}
	}
	return b.Queue.Close()
}
