// Command pulse-cli is an interactive Pulse client for exploring brokers.
//
// Usage:
//
//	pulse-cli [flags]
//
// Flags:
//
//	-config string    Configuration file path
//	-server string    Broker address(es), comma-separated (overrides config)
//	-insecure         Skip broker certificate verification
//	-dev              Development logging (debug output)
//
// Interactive Commands:
//
//	sub <subject> [queue]       - Subscribe to a subject
//	unsub <id>                  - Dispose a subscription handle
//	pub <subject> <json>        - Publish a JSON payload
//	req <subject> <json>        - Send a request and print the response
//	respond <subject> <json>    - Answer requests with a fixed payload
//	list                        - List live subscriptions
//	status                      - Show connection state
//	discover                    - Browse for brokers via mDNS
//	quit                        - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pulse-protocol/pulse-go/pkg/client"
	"github.com/pulse-protocol/pulse-go/pkg/config"
	"github.com/pulse-protocol/pulse-go/pkg/logging"
)

func main() {
	var (
		configFile string
		servers    string
		insecure   bool
		dev        bool
	)
	flag.StringVar(&configFile, "config", "", "Configuration file path")
	flag.StringVar(&servers, "server", "", "Broker address(es), comma-separated")
	flag.BoolVar(&insecure, "insecure", false, "Skip broker certificate verification")
	flag.BoolVar(&dev, "dev", false, "Development logging")
	flag.Parse()

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if servers != "" {
		cfg.Servers = strings.Split(servers, ",")
	}
	if insecure {
		cfg.TLS.Insecure = true
	}
	cfg.Development = cfg.Development || dev

	logger, err := logging.New("pulse-cli", cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conn, err := client.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := conn.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected to %s\n", strings.Join(cfg.Servers, ", "))

	shell, err := newShell(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shell: %v\n", err)
		os.Exit(1)
	}
	shell.Run(ctx, cancel)
}
