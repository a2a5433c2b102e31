package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/miniboard/pkg/l1/telemetry/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/miniboard/"
	board   = "+"
)

func init() {
	if val := os.Getenv("MINIBOARD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&board, "board", board, "Board ID to monitor.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	m := jsonpb.Marshaler{}
	handler := mqtt.Handler(func(topic string, payload []byte) {
		if len(payload) == 0 {
			if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
				log.Printf("%s: offline", topic)
			}
			return
		}
		var msg structpb.Struct
		if err := proto.Unmarshal(payload, &msg); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		out, err := m.MarshalToString(&msg)
		if err != nil {
			log.Printf("%s: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, out)
	})
	q.Sub(board+"/"+mqtt.TopicMeta, handler)
	q.Sub(board+"/"+mqtt.TopicTelemetry, handler)
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
