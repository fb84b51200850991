package locator

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/largo/internal/adapters/logger"
	"go.trai.ch/largo/internal/core/ports"
)

const (
	// LocatorNodeID is the unique identifier for the source locator Graft node.
	LocatorNodeID graft.ID = "adapter.source_locator"
	// FetcherNodeID is the unique identifier for the source fetcher Graft node.
	FetcherNodeID graft.ID = "adapter.source_fetcher"
)

func init() {
	graft.Register(graft.Node[ports.SourceLocator]{
		ID:        LocatorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.SourceLocator, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLocator(log)
		},
	})

	graft.Register(graft.Node[ports.SourceFetcher]{
		ID:        FetcherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, LocatorNodeID},
		Run: func(ctx context.Context) (ports.SourceFetcher, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			loc, err := graft.Dep[ports.SourceLocator](ctx)
			if err != nil {
				return nil, err
			}
			return NewFetcher(log, loc.(*Locator)), nil
		},
	})
}
