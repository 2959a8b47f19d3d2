// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// MediaFileDiscoveredTopic is the topic MediaFileDiscovered events are
// published to on the in-process event bus.
const MediaFileDiscoveredTopic = "media-file-discovered"

// WatermillSink publishes MediaFileDiscovered events onto an in-process
// Watermill GoChannel pub/sub. It is the Sink implementation folder scan
// actors publish through; the analysis/metadata stage subscribes to the
// same topic to consume them.
type WatermillSink struct {
	pubSub *gochannel.GoChannel
}

// NewWatermillSink creates a Sink backed by a GoChannel pub/sub. Passing a
// nil logger uses watermill's no-op logger.
func NewWatermillSink(logger watermill.LoggerAdapter) *WatermillSink {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &WatermillSink{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger),
	}
}

// Publish implements Sink. Marshal failures and closed-subscriber errors
// are logged by the caller's retry path, not returned, since a discovery
// event must never block or fail a folder scan job.
func (w *WatermillSink) Publish(event MediaFileDiscovered) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	_ = w.pubSub.Publish(MediaFileDiscoveredTopic, msg)
}

// Subscribe returns the channel the analysis/metadata stage consumes
// MediaFileDiscovered messages from. Each message's payload is the JSON
// encoding of a MediaFileDiscovered value.
func (w *WatermillSink) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return w.pubSub.Subscribe(ctx, MediaFileDiscoveredTopic)
}

// DecodeMediaFileDiscovered unmarshals a message payload published by
// WatermillSink back into a MediaFileDiscovered value.
func DecodeMediaFileDiscovered(msg *message.Message) (MediaFileDiscovered, error) {
	var event MediaFileDiscovered
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return MediaFileDiscovered{}, fmt.Errorf("decode media file discovered: %w", err)
	}
	return event, nil
}

// Close shuts down the underlying GoChannel pub/sub, unblocking any active
// Subscribe calls.
func (w *WatermillSink) Close() error {
	return w.pubSub.Close()
}
