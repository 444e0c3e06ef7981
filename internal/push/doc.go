// Package push applies the cloud's partial state updates to registry
// entities.
//
// Messages arrive on the MQTT client's goroutines. A Stream subscribes to
// the account topics and hands each payload to the Dispatcher, which
// decodes it and queues it on a bounded channel. A single worker drains
// the queue in arrival order into the Router.
//
// The Router picks targets by exact (device_name, serial_number) match.
// Signal-only pushes, which the cloud sends per device name, are fanned
// out to every entity sharing the name (a thermostat and its zones).
// Anything else is dropped at debug level.
//
// Usage:
//
//	router, _ := push.NewRouter(push.RouterOptions{Registry: reg, Logger: log})
//	disp, _ := push.NewDispatcher(push.DispatcherOptions{Handler: router})
//	disp.Start(ctx)
//	defer disp.Stop()
//
//	stream, _ := push.NewStream(push.StreamOptions{
//	    Subscriber: sub,
//	    Registry:   reg,
//	    Dispatcher: disp,
//	    Topics:     []string{reportedTopic, desiredTopic},
//	})
//	if err := stream.Subscribe(); err != nil { ... }
package push
