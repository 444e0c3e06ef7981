package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe routes messages on topic to handler and remembers the
// subscription so it is replayed after a reconnect. Handlers run on
// paho's delivery goroutine and should hand work off rather than block.
//
//	err := client.Subscribe(mqtt.Topics{}.Reported(accountID), 0,
//	    func(topic string, payload []byte) error {
//	        return dispatcher.Submit(topic, payload)
//	    })
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: qos, handler: handler}
	c.subMu.Unlock()

	if err := awaitToken(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		c.forget(topic)
		return err
	}
	return nil
}

// Unsubscribe drops the subscription for topic. Messages already in
// flight may still reach the old handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.forget(topic)
	return awaitToken(c.client.Unsubscribe(topic), ErrUnsubscribeFailed)
}

// Unsubscribed returns the topics from the argument list that have no
// active subscription, in argument order.
func (c *Client) Unsubscribed(topics ...string) []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	var missing []string
	for _, topic := range topics {
		if _, ok := c.subscriptions[topic]; !ok {
			missing = append(missing, topic)
		}
	}
	return missing
}

func (c *Client) forget(topic string) {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()
}

// awaitToken waits for a broker acknowledgement, tagging failures with kind.
func awaitToken(token pahomqtt.Token, kind error) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", kind, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}
