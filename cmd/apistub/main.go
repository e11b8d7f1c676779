package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	conf "github.com/chaitanya-699/url-shortener/internal/config"
	env "github.com/chaitanya-699/url-shortener/internal/config/environment"
	"github.com/chaitanya-699/url-shortener/internal/factory"
	"github.com/chaitanya-699/url-shortener/internal/stub"
)

const eventKey = "event"

func main() {
	config, _ := conf.New().FromArgs(os.Args)
	config = config.FromEnv(env.New())

	logger, tearDownLogger := factory.NewLogger(config.LogLevel)
	defer tearDownLogger()

	server := stub.New(stub.WithLogger(logger))

	logger.Info("Running stub API server", zap.String("address", config.ListenAddress))
	if err := http.ListenAndServe(config.ListenAddress, server); err != nil {
		logger.Fatal(err.Error(), zap.String(eventKey, "start server"))
	}
}
