package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/api"
	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/llm"
	"github.com/bdia-labs/gaia-bench/internal/logging"
	"github.com/bdia-labs/gaia-bench/internal/objstore"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig  = config.Load
	openStore   = store.Open
	newObjstore = objstore.New
	newRegistry = llm.NewRegistryFromConfig
	newServer   = api.NewServer
	runServer   = (*api.Server).Run
)

type serverOptions struct {
	addr       string
	configPath string
}

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	var opts serverOptions
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)
	fs.StringVar(&opts.addr, "addr", "", "listen address (defaults to server.addr from the config)")
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := serve(&opts); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	return 0
}

func serve(opts *serverOptions) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	// Without a bucket the server still answers text-only questions;
	// attachment lookups degrade inside the runner.
	var (
		signer api.FileURLSigner
		files  bench.FileResolver
	)
	if strings.TrimSpace(cfg.ObjectStore.Bucket) != "" {
		oc, err := newObjstore(cfg.ObjectStore)
		if err != nil {
			return err
		}
		if oc != nil {
			signer = oc
			files = oc
		}
	} else {
		log.Info("object store not configured, attachment questions disabled")
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	runner := bench.NewRunner(st, files, registry, log.Named("bench"))
	srv, err := newServer(cfg, st, runner, signer, log.Named("api"))
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(opts.addr)
	if addr == "" {
		addr = cfg.Server.Addr
	}
	log.Info("listening", zap.String("addr", addr))
	return runServer(srv, addr)
}
