// Package nats carries remote actor messages over NATS.
//
// Every node listens on "<prefix>.node.<node id>" as a queue group named
// after the node id, so requests for one node are handled once even when
// several processes serve it. Envelopes are JSON; replies use the same
// response frame as the in-memory transport.
//
//	tr, err := nats.NewTransport(nats.TransportConfig{
//	    Connect: nats.ConnectDefault(), // $NATS_URL
//	})
package nats
