package remote

import (
	"context"
	"log/slog"

	"github.com/codewandler/coerce-go/core/actor"
)

// NodeInfoRequest is the built-in request answered by every node.
const NodeInfoRequest = "coerce.node.info"

type (
	// Registry is the addressable actor describing the local node. Other
	// node-level state can be attached to it later; today it only knows
	// its node id.
	Registry struct {
		nodeID string
	}

	NodeInfo struct {
		NodeID string `json:"node_id" msgpack:"node_id"`
	}

	GetNodeInfo struct{}
)

func NewRegistry(ctx context.Context, actx *actor.ActorContext, nodeID string) (*actor.Ref[*Registry], error) {
	return actor.NewActor(ctx, actx, &Registry{nodeID: nodeID})
}

func (r *Registry) Started(hc actor.HandlerCtx) error {
	hc.Log().Debug("registry started", slog.String("node", r.nodeID))
	return nil
}

func (GetNodeInfo) MsgType() string { return NodeInfoRequest }

func (GetNodeInfo) Handle(hc actor.HandlerCtx, r *Registry) (NodeInfo, error) {
	return NodeInfo{NodeID: r.nodeID}, nil
}
