package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/natexcvi/lexbot/config"
	"github.com/natexcvi/lexbot/prebuilt"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.LogFormat = "json"
	cfg.SetupLogging()

	helpDesk, err := prebuilt.NewHelpDeskFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	router := helpDesk.Router()
	log.WithField("intents", router.Intents()).Info("help desk ready")
	lambda.Start(router.Dispatch)
}
