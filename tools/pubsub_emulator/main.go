// Command pubsub_emulator creates the topic and the subscription of the job events in a local pubsub emulator,
// to run eedl with EEDL_EVENT_QUEUE=eedl-events and EEDL_PS_PROJECT=eedl-emulator
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/airbusgeo/geocube-sampler/service/log"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func main() {
	ctx := context.Background()

	projectID := flag.String("project", "eedl-emulator", "emulator project")
	host := flag.String("host", "localhost:8085", "address of the emulator")
	topic := flag.String("topic", "eedl-events", "topic of the job events")
	subscription := flag.String("subscription", "eedl-events", "subscription to the job events (empty to skip)")
	flag.Parse()

	os.Setenv("PUBSUB_EMULATOR_HOST", *host)

	logger := log.Logger(ctx).Sugar()
	logger.Infof("New client for project %s on %s", *projectID, *host)
	client, err := pubsub.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal("pubsub.NewClient", zap.Error(err))
	}
	defer client.Close()

	logger.Infof("Create Topic: %s", *topic)
	if _, err = client.CreateTopic(ctx, *topic); err != nil && status.Code(err) != codes.AlreadyExists {
		log.Fatal("pubsub.CreateTopic", zap.Error(err))
	}

	if *subscription != "" {
		logger.Infof("Create Subscription: %s", *subscription)
		if _, err = client.CreateSubscription(ctx, *subscription, pubsub.SubscriptionConfig{
			Topic:       client.Topic(*topic),
			AckDeadline: 10 * time.Second,
		}); err != nil && status.Code(err) != codes.AlreadyExists {
			log.Fatal("pubsub.CreateSubscription", zap.Error(err))
		}
	}
	logger.Info("Done!")
}
