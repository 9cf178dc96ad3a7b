package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/ledrace/race"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// A FrameObserver is told about every frame the Streamer sends.
type FrameObserver interface {
	ObserveFrame(frameIndex int, states []race.FrameState)
}

// MqttPublisher publishes over an MQTT client.
type MqttPublisher struct {
	client mqtt.Client
	qos    byte
}

// NewMqttPublisher creates an instance of a MqttPublisher.
func NewMqttPublisher(client mqtt.Client, qos byte) *MqttPublisher {
	p := new(MqttPublisher)
	p.client = client
	p.qos = qos
	return p
}

// Publish blocks until the broker has the message.
func (p *MqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

// Label is the counter of one racer.
type Label struct {
	Name    string `json:"name"`
	Counter int64  `json:"counter"`
}

// LabelMessage carries the counters of every racer for one frame.
type LabelMessage struct {
	Frame    int     `json:"frame"`
	Counters []Label `json:"counters"`
}

// Streamer that streams RGB data frames of a race to an ledrx device.
type Streamer struct {
	config    Config
	plan      *race.Plan
	animation Animation
	publisher Publisher
	observers []FrameObserver
}

// NewStreamer creates an instance of a Streamer. A nil publisher makes a dry
// run where only the observers see the race.
func NewStreamer(config Config, plan *race.Plan, animation Animation, publisher Publisher) *Streamer {
	s := new(Streamer)
	s.config = config
	s.plan = plan
	s.animation = animation
	s.publisher = publisher
	return s
}

// AddObserver registers o to be told about every frame.
func (s *Streamer) AddObserver(o FrameObserver) {
	s.observers = append(s.observers, o)
}

// SendFrame evaluates a frame of the race and sends it everywhere.
func (s *Streamer) SendFrame(frameIndex int) error {
	states := s.plan.Frame(frameIndex)
	for _, o := range s.observers {
		o.ObserveFrame(frameIndex, states)
	}

	if s.publisher == nil {
		return nil
	}

	f := s.animation.CalculateFrame(frameIndex, states)
	b, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal frame %d: %w", frameIndex, err)
	}
	if err := s.publisher.Publish(s.config.Mqtt.Topics.Stream, b); err != nil {
		return fmt.Errorf("publish frame %d: %w", frameIndex, err)
	}

	if s.config.Race.Labels {
		msg := LabelMessage{Frame: frameIndex, Counters: make([]Label, len(states))}
		for i, st := range states {
			msg.Counters[i] = Label{Name: s.plan.Entities[i].Name, Counter: st.Counter}
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal labels %d: %w", frameIndex, err)
		}
		if err := s.publisher.Publish(s.config.Mqtt.Topics.Labels, b); err != nil {
			return fmt.Errorf("publish labels %d: %w", frameIndex, err)
		}
	}

	return nil
}

// Run sends one frame per tick until the race is over or ctx is done. A
// failed frame is logged and the race carries on.
func (s *Streamer) Run(ctx context.Context) error {
	log.Printf("Racing %d entities: %d frames at %dfps (%v)",
		len(s.plan.Entities), s.plan.TotalFrames, s.plan.FrameRate, s.plan.Duration())

	publishTimer := time.NewTicker(s.plan.Interval())
	defer publishTimer.Stop()

	for frame := 0; frame < s.plan.TotalFrames; frame++ {
		if err := s.SendFrame(frame); err != nil {
			log.Println(err)
		}

		if s.plan.Finished(frame) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-publishTimer.C:
		}
	}

	log.Println("Race finished")
	return nil
}
