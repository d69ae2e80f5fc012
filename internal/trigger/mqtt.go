// Package trigger connects external trigger sources (PLC pulses over MQTT)
// to the orchestrator. The REST trigger lives in the handlers package.
package trigger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"visionserver/internal/logger"
	"visionserver/internal/model"
)

// Pipeline is the subset of the orchestrator a trigger source needs.
type Pipeline interface {
	Trigger(deviceID string, threshold float64) (*model.CaptureRequest, error)
	PrimaryDevice() string
	DefaultThreshold() float64
}

type triggerPayload struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

// MQTTSource subscribes to a trigger topic and fires one capture per
// message. Trigger rejections (busy device, full queue) are logged as
// warnings; a PLC pulsing faster than the pipeline drains is ordinary
// backpressure, not a fault.
type MQTTSource struct {
	client   mqtt.Client
	topic    string
	pipeline Pipeline
	logs     *logger.Logger
}

// NewMQTTSource connects to the broker and subscribes to the topic. The last
// topic segment, when it is not a wildcard, names the target device;
// otherwise the primary device is triggered.
func NewMQTTSource(broker, clientID, topic string, pipeline Pipeline, logs *logger.Logger) (*MQTTSource, error) {
	s := &MQTTSource{
		topic:    topic,
		pipeline: pipeline,
		logs:     logs,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logs.Info("trigger", "Connected to MQTT broker %s", broker)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		logs.Warning("trigger", "MQTT connection lost: %v", err)
	})

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	if token := s.client.Subscribe(topic, 1, s.handleMessage); token.Wait() && token.Error() != nil {
		s.client.Disconnect(250)
		return nil, fmt.Errorf("failed to subscribe to trigger topic: %w", token.Error())
	}
	logs.Info("trigger", "Subscribed to trigger topic %s", topic)

	return s, nil
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	deviceID := s.deviceFromTopic(msg.Topic())
	threshold := s.pipeline.DefaultThreshold()

	if len(msg.Payload()) > 0 {
		var payload triggerPayload
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			s.logs.Warning("trigger", "Ignoring malformed trigger payload on %s: %v", msg.Topic(), err)
			return
		}
		if payload.ConfidenceThreshold != nil {
			threshold = *payload.ConfidenceThreshold
		}
	}

	req, err := s.pipeline.Trigger(deviceID, threshold)
	if err != nil {
		s.logs.Warning("trigger", "MQTT trigger for %s rejected: %v", deviceID, err)
		return
	}
	s.logs.Info("trigger", "MQTT trigger accepted for %s (%s)", deviceID, req.CorrelationID)
}

// deviceFromTopic extracts the device id from the last topic segment. A
// message on the bare prefix (or a single-level base topic) targets the
// primary device.
func (s *MQTTSource) deviceFromTopic(topic string) string {
	prefix := strings.TrimSuffix(strings.TrimSuffix(s.topic, "#"), "/")
	rest := strings.Trim(strings.TrimPrefix(topic, prefix), "/")
	if rest == "" {
		return s.pipeline.PrimaryDevice()
	}
	segments := strings.Split(rest, "/")
	return segments[len(segments)-1]
}

// Close unsubscribes and disconnects.
func (s *MQTTSource) Close() {
	s.client.Unsubscribe(s.topic)
	s.client.Disconnect(250)
}
