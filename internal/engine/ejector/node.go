package ejector

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/largo/internal/adapters/logger"
	"go.trai.ch/largo/internal/adapters/store"
	"go.trai.ch/largo/internal/core/ports"
)

// NodeID is the unique identifier for the ejector Graft node.
const NodeID graft.ID = "engine.ejector"

func init() {
	graft.Register(graft.Node[*Ejector]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{store.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Ejector, error) {
			contentStore, err := graft.Dep[ports.ContentStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewEjector(contentStore, log), nil
		},
	})
}
