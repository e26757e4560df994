/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/takama/daemon"
	"go.uber.org/zap"

	"github.com/NearNodeFlash/nnf-nvmeof/checker-daemon/version"
	"github.com/NearNodeFlash/nnf-nvmeof/internal/checker"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/inventory"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/token"
)

const (
	name        = "nvmecheckd"
	description = "NVMe-oF Discovery Check Service"
)

var (
	logger   logr.Logger
	setupLog logr.Logger
)

type Service struct {
	daemon.Daemon
}

func (service *Service) Manage() (string, error) {

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "install":
			return service.Install(os.Args[2:]...)
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		case "token":
			return mintToken(os.Args[2:])
		}
	}

	opts, err := getOptions(os.Args[1:])
	if err != nil {
		return "Options", err
	}

	setupLog.Info("NVMe-oF Check Daemon", "Version", version.BuildVersion())

	config, err := createChecker(opts)
	if err != nil {
		return "Create", err
	}

	// Set up channel on which to send signal notifications; must use a buffered
	// channel or risk missing the signal if we're not setup to receive the signal
	// when it is sent.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	go startChecker(config)

	killSignal := <-interrupt
	setupLog.Info("Daemon was killed", "signal", killSignal)

	if config.store != nil {
		if err := config.store.Close(); err != nil {
			setupLog.Error(err, "Could not close the history database")
		}
	}

	return "Exited", nil
}

type checkerConfig struct {
	checker  *checker.Checker
	server   *checker.Server
	store    *checker.Store
	listen   string
	interval time.Duration
}

type options struct {
	inventoryFile string
	listenAddr    string
	interval      time.Duration
	databaseFile  string
	tokenKeyFile  string
	mock          bool
	parallel      int
}

func getOptions(args []string) (*options, error) {
	opts := options{
		inventoryFile: os.Getenv("NVMEOF_INVENTORY"),
		listenAddr:    os.Getenv("NVMEOF_LISTEN"),
		interval:      time.Minute,
		databaseFile:  os.Getenv("NVMEOF_DATABASE"),
		tokenKeyFile:  os.Getenv("NVMEOF_TOKEN_KEY"),
		mock:          false,
		parallel:      4,
	}

	if len(opts.inventoryFile) == 0 {
		opts.inventoryFile = "/etc/nvmeof/inventory.yaml"
	}
	if len(opts.listenAddr) == 0 {
		opts.listenAddr = ":8080"
	}
	if len(opts.tokenKeyFile) == 0 {
		opts.tokenKeyFile = "/etc/nvmeof/token-key.pem"
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&opts.inventoryFile, "inventory", opts.inventoryFile, "Path to the target inventory file")
	flags.StringVar(&opts.listenAddr, "listen", opts.listenAddr, "Address the HTTP API listens on")
	flags.DurationVar(&opts.interval, "interval", opts.interval, "Time between sweeps")
	flags.StringVar(&opts.databaseFile, "database", opts.databaseFile, "Path to the history database; empty disables history")
	flags.StringVar(&opts.tokenKeyFile, "token-key", opts.tokenKeyFile, "Path to the token signing key")
	flags.BoolVar(&opts.mock, "mock", opts.mock, "Run against a mock host where every target is discoverable")
	flags.IntVar(&opts.parallel, "parallel", opts.parallel, "Maximum concurrent checks in a sweep")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if opts.interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", opts.interval)
	}

	return &opts, nil
}

func createChecker(opts *options) (*checkerConfig, error) {

	inv, err := inventory.Load(opts.inventoryFile)
	if err != nil {
		return nil, err
	}

	var checkHost host.Host = host.NewLocalHost(logger.WithName("command"))
	if opts.mock {
		setupLog.Info("Running in mock mode")
		checkHost = mockHostFor(inv, inv.Defaults.DiscoverCommand)
	}

	var store *checker.Store
	if len(opts.databaseFile) != 0 {
		store, err = checker.OpenStore(opts.databaseFile)
		if err != nil {
			return nil, err
		}
	}

	keyBytes, err := token.LoadOrCreateKey(opts.tokenKeyFile)
	if err != nil {
		return nil, err
	}

	chk := &checker.Checker{
		Log:             logger.WithName("checker"),
		Host:            checkHost,
		Inventory:       inv,
		Store:           store,
		DiscoverCommand: inv.Defaults.DiscoverCommand,
		Parallel:        opts.parallel,
	}

	server := &checker.Server{
		Log:      logger.WithName("server"),
		Checker:  chk,
		TokenKey: keyBytes,
	}

	return &checkerConfig{
		checker:  chk,
		server:   server,
		store:    store,
		listen:   opts.listenAddr,
		interval: opts.interval,
	}, nil
}

// mockHostFor scripts a discoverable response for every inventory
// target, for bring-up without a fabric.
func mockHostFor(inv *inventory.Inventory, template string) *host.MockHost {
	mockHost := host.NewMockHost("mock")
	for _, target := range inv.Targets {
		cmd := nvme.BuildDiscoverCommand(checker.DiscoverTemplateFor(template, target), target.Address, target.Port)
		mockHost.Responses[cmd] += fmt.Sprintf("subnqn:  %s\n", target.SubNQN)
	}

	return mockHost
}

func startChecker(config *checkerConfig) {
	setupLog.Info("GOMAXPROCS", "value", runtime.GOMAXPROCS(0))

	go func() {
		setupLog.Info("Serving HTTP", "address", config.listen)

		server := &http.Server{Addr: config.listen, Handler: config.server.Router()}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			setupLog.Error(err, "problem running HTTP server")
			os.Exit(1)
		}
	}()

	ctx := context.Background()

	if _, err := config.checker.Sweep(ctx); err != nil {
		setupLog.Error(err, "initial sweep failed")
	}

	ticker := time.NewTicker(config.interval)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := config.checker.Sweep(ctx); err != nil {
			setupLog.Error(err, "sweep failed")
		}
	}
}

// mintToken creates a bearer token for the HTTP API, using the same
// key file the daemon serves with.
func mintToken(args []string) (string, error) {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	keyFile := flags.String("token-key", "/etc/nvmeof/token-key.pem", "Path to the token signing key")
	subject := flags.String("subject", "nvmeof-operator", "Token subject")
	duration := flags.Duration("duration", 24*time.Hour, "Token lifetime")

	if err := flags.Parse(args); err != nil {
		return "Token", err
	}

	keyBytes, err := token.LoadOrCreateKey(*keyFile)
	if err != nil {
		return "Token", err
	}

	tokenString, err := token.CreateTokenFromKey(keyBytes, *subject, *duration)
	if err != nil {
		return "Token", err
	}

	return tokenString, nil
}

func main() {

	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println("Version", version.BuildVersion())
		os.Exit(0)
	}

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not create logger:", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	logger = zapr.NewLogger(zapLogger)
	setupLog = logger.WithName("setup")

	kindFn := func() daemon.Kind {
		if runtime.GOOS == "darwin" {
			return daemon.UserAgent
		}
		return daemon.SystemDaemon
	}

	d, err := daemon.New(name, description, kindFn(), "network-online.target")
	if err != nil {
		setupLog.Error(err, "Could not create daemon")
		os.Exit(1)
	}

	service := &Service{d}

	status, err := service.Manage()
	if err != nil {
		setupLog.Error(err, status)
		os.Exit(1)
	}

	fmt.Println(status)
}
