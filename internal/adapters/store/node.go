package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/largo/internal/adapters/locator"
	"go.trai.ch/largo/internal/adapters/logger"
	"go.trai.ch/largo/internal/core/ports"
)

// NodeID is the unique identifier for the content store Graft node.
const NodeID graft.ID = "adapter.content_store"

func init() {
	graft.Register(graft.Node[ports.ContentStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, locator.FetcherNodeID},
		Run: func(ctx context.Context) (ports.ContentStore, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.SourceFetcher](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(log, fetcher)
		},
	})
}
