// Package remote lets actors receive messages from other processes.
//
// Every message type that may arrive over the wire is registered under a
// name, together with the actor type that handles it:
//
//	h, err := remote.NewHandler(ctx, actx,
//	    remote.Handle[*Device, Status, GetStatus]("device.get_status"),
//	    remote.Handle[*Device, bool, SetStatus]("device.set_status"),
//	)
//
// The name tables live in the [Handler] actor and never change after it is
// spawned. Registering one name twice, or one (actor, message) pair under
// two names, fails with [ErrDuplicateHandler].
//
// # Inbound
//
// A [Node] subscribes to a transport under its node id. For each envelope
// it picks the codec named in the x-coerce-codec header, asks the Handler
// for a fresh [MessageHandler] by name, looks the target actor up in its
// ActorContext and hands both the payload. The built-in request
// "coerce.node.info" is answered by the node's [Registry] actor.
//
// # Outbound
//
// A [Client] resolves the wire name of a message type before encoding it.
// Names are cached and concurrent lookups for one type are collapsed into
// a single request to the Handler actor.
//
//	ref := remote.Remote[*Device](client, "node-1", id)
//	status, err := remote.Send[Status](ctx, ref, GetStatus{})
//
// Errors raised on the remote side, such as [ErrActorNotFound], arrive as
// plain errors with the original text.
package remote
