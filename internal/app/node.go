package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/largo/internal/adapters/config"
	"go.trai.ch/largo/internal/adapters/locator"
	"go.trai.ch/largo/internal/adapters/lockfile"
	"go.trai.ch/largo/internal/adapters/logger"
	"go.trai.ch/largo/internal/adapters/store"
	"go.trai.ch/largo/internal/core/ports"
	"go.trai.ch/largo/internal/engine/ejector"
	"go.trai.ch/largo/internal/engine/graphbuilder"
	"go.trai.ch/largo/internal/engine/materializer"
	"go.trai.ch/largo/internal/engine/resolver"
)

// NodeID is the unique identifier for the App Graft node.
const NodeID graft.ID = "app.largo"

// ComponentsNodeID is the unique identifier for the Components Graft node.
const ComponentsNodeID graft.ID = "app.components"

// Components contains the initialized application components the CLI layer
// needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lockfile.NodeID,
			locator.LocatorNodeID,
			store.NodeID,
			graphbuilder.NodeID,
			resolver.NodeID,
			materializer.NodeID,
			ejector.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}
			lockStore, err := graft.Dep[ports.LockfileStore](ctx)
			if err != nil {
				return nil, err
			}
			loc, err := graft.Dep[ports.SourceLocator](ctx)
			if err != nil {
				return nil, err
			}
			contentStore, err := graft.Dep[ports.ContentStore](ctx)
			if err != nil {
				return nil, err
			}
			builder, err := graft.Dep[*graphbuilder.Builder](ctx)
			if err != nil {
				return nil, err
			}
			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}
			mat, err := graft.Dep[*materializer.Materializer](ctx)
			if err != nil {
				return nil, err
			}
			ej, err := graft.Dep[*ejector.Ejector](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, lockStore, loc, contentStore, builder, res, mat, ej, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: application, Logger: log}, nil
		},
	})
}
