package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dangerclosesec/pathway/internal/queue"
	"github.com/spf13/cobra"
)

var (
	eventsGroup string
	eventsType  string
)

func init() {
	eventsTailCmd.Flags().StringVar(&eventsGroup, "group", "pathwayctl-tail", "Kafka consumer group")
	eventsTailCmd.Flags().StringVar(&eventsType, "type", "", "Only print events of this type")
	eventsCmd.AddCommand(eventsTailCmd)
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the application event stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print application events as they are published",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if len(cfg.Kafka.Brokers) == 0 {
			log.Fatalf("KAFKA_BROKERS is not set")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, eventsGroup)
		err := consumer.Listen(ctx, func(ctx context.Context, key string, event queue.Event, raw json.RawMessage) error {
			if eventsType != "" && event.Type != eventsType {
				return nil
			}
			fmt.Printf("%s  %-24s  %s  %s\n", event.OccurredAt.Format(time.RFC3339), event.Type, key, raw)
			return nil
		})
		if err != nil {
			log.Fatalf("Error reading events: %v", err)
		}
	},
}
