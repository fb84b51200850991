// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/largo/internal/adapters/config"
	_ "go.trai.ch/largo/internal/adapters/locator"
	_ "go.trai.ch/largo/internal/adapters/lockfile"
	_ "go.trai.ch/largo/internal/adapters/logger"
	_ "go.trai.ch/largo/internal/adapters/store"
	_ "go.trai.ch/largo/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/largo/internal/app"
	_ "go.trai.ch/largo/internal/engine/ejector"
	_ "go.trai.ch/largo/internal/engine/graphbuilder"
	_ "go.trai.ch/largo/internal/engine/materializer"
	_ "go.trai.ch/largo/internal/engine/resolver"
)
