package graphbuilder

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/largo/internal/adapters/config"
	"go.trai.ch/largo/internal/adapters/locator"
	"go.trai.ch/largo/internal/adapters/logger"
	"go.trai.ch/largo/internal/adapters/store"
	"go.trai.ch/largo/internal/adapters/telemetry"
	"go.trai.ch/largo/internal/core/ports"
)

// NodeID is the unique identifier for the graph builder Graft node.
const NodeID graft.ID = "engine.graph_builder"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			locator.LocatorNodeID,
			store.NodeID,
			config.NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			loc, err := graft.Dep[ports.SourceLocator](ctx)
			if err != nil {
				return nil, err
			}
			contentStore, err := graft.Dep[ports.ContentStore](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(loc, contentStore, loader, log, tracer), nil
		},
	})
}
