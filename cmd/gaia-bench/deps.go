package main

import (
	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/hub"
	"github.com/bdia-labs/gaia-bench/internal/llm"
	"github.com/bdia-labs/gaia-bench/internal/objstore"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

// Constructor seams, swapped out in tests.
var (
	openStore         = store.Open
	newObjstore       = objstore.New
	newRegistry       = llm.NewRegistryFromConfig
	newHub            = hub.NewClient
	readLocalMetadata = hub.ReadLocalMetadata
	newRunner         = bench.NewRunner
)
