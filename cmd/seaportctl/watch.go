package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"seaport-backend/internal/clients"
	"seaport-backend/internal/events"

	"github.com/spf13/cobra"
)

var (
	watchURL     string
	watchEvent   string
	watchPrefix  string
	watchAccount string
)

// WatchCmd streams engine events published on NATS
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print engine events from NATS as JSON lines until interrupted",
	RunE:  watch,
}

func init() {
	WatchCmd.Flags().StringVar(&watchURL, "nats", "", "NATS URL (defaults to nats.url from config)")
	WatchCmd.Flags().StringVar(&watchEvent, "event", "*", "event name to follow, e.g. OrderFulfilled")
	WatchCmd.Flags().StringVar(&watchPrefix, "prefix", "", "subject prefix (defaults to nats.subjectPrefix from config)")
	WatchCmd.Flags().StringVar(&watchAccount, "account", "", "only print events concerning this address")
}

func watch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	natsCfg := cfg.NATS
	if watchURL != "" {
		natsCfg.URL = watchURL
	}
	if watchPrefix != "" {
		natsCfg.SubjectPrefix = watchPrefix
	}
	if natsCfg.URL == "" {
		return fmt.Errorf("no NATS URL: pass --nats or set nats.url")
	}

	client, err := clients.NewNATSClient(natsCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	out := json.NewEncoder(cmd.OutOrStdout())
	sub, err := client.Subscribe(watchEvent, func(env events.Envelope) {
		if watchAccount != "" && !env.Concerns(watchAccount) {
			return
		}
		if err := out.Encode(env); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "write failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
