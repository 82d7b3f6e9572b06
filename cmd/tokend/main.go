package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tokend/internal/api"
	"tokend/internal/backends"
	"tokend/internal/ports"
	"tokend/internal/pub"
	"tokend/internal/token"
	"tokend/internal/types"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}

	cfg, err := loadServerConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}

	store, err := backends.TokenStoreFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}

	cache, err := backends.EntityCacheFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	var events *pub.Events
	if cfg.EventTopicARN != "" {
		publisher, err := snsPublisherFromEnv(context.Background())
		if err != nil {
			log.Fatalf("Failed to initialize SNS publisher: %v", err)
		}
		events = pub.NewEvents(publisher, cfg.EventTopicARN)
	}

	svc := token.NewService(store, cache, ports.SystemClock{})
	api.RunServer(cfg.Port, svc, events)
}

// loadServerConfig reads the optional YAML config file; defaults apply
// when no path is given.
func loadServerConfig(path string) (types.ServerConfig, error) {
	cfg := types.DefaultServerConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// snsPublisherFromEnv builds the SNS client; SNS_ENDPOINT overrides the
// endpoint for local development against an AWS mock.
func snsPublisherFromEnv(ctx context.Context) (ports.Publisher, error) {
	var snsEndpoint *string
	if se := os.Getenv("SNS_ENDPOINT"); se != "" {
		snsEndpoint = aws.String(se)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			credProvider := credentials.NewStaticCredentialsProvider("test", "test", "")
			o.Credentials = credProvider
		}
	})
	return pub.NewSNS(snsClient), nil
}
