// Package app wires an ActorContext, the remote Handler and Registry
// actors, a Node and a Client into one value for embedding.
//
// # Basic Usage
//
//	a, err := app.Run(app.Config{NodeID: "node-1", Transport: natsTransport},
//	    remote.Handle[*Device, Status, GetStatus]("device.get_status"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Shutdown(ctx)
//
//	dev, _ := actor.NewActor(ctx, a.ActorContext(), &Device{})
//
//	// from any node on the same transport
//	ref := remote.Remote[*Device](a.Client(), "node-1", dev.ID())
//	status, err := remote.Send[Status](ctx, ref, GetStatus{})
//
// # Configuration
//
// [LoadConfig] reads YAML and then applies environment overrides:
//
//	node_id: node-1
//	actor:
//	  mailbox_size: 1024
//	  max_concurrent_tasks: 32
//	remote:
//	  codec: msgpack
//	  name_cache_size: 256
//	  name_cache_ttl: 5m
//
// The overrides are COERCE_NODE_ID, COERCE_CODEC, COERCE_MAILBOX_SIZE,
// COERCE_MAX_CONCURRENT_TASKS, COERCE_NAME_CACHE_SIZE and
// COERCE_NAME_CACHE_TTL. Transport, logger and metrics are set in code.
package app
