// Command lambda serves the CIDR group API as an AWS Lambda function behind
// an API Gateway proxy integration. Set STORE_BACKEND=object and
// STORE_URL=s3://<bucket>/<prefix> to keep groups in S3.
package main

import (
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/bcnelson/cidr-group-central/internal/api"
	"github.com/bcnelson/cidr-group-central/internal/app"
	"github.com/bcnelson/cidr-group-central/internal/config"
	"github.com/bcnelson/cidr-group-central/internal/lambda"
	"github.com/bcnelson/cidr-group-central/internal/logging"
	"github.com/charmbracelet/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		log.Fatal("Invalid logging configuration", "err", err)
	}

	// The store handle is created once per execution environment and reused
	// across invocations.
	reg, _, err := app.NewRegistry(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to initialize registry", "err", err)
	}

	adapter := lambda.NewAdapter(api.NewRouter(reg, cfg.Auth.APIKey, logger), cfg.Lambda.BasePath)
	awslambda.Start(adapter.Handle)
}
