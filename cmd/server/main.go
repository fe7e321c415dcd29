package main

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/soil-monitor-service/pkg/app"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
	iotGrpc "liyu1981.xyz/soil-monitor-service/pkg/grpc"
	iotHttp "liyu1981.xyz/soil-monitor-service/pkg/http"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
)

func main() {
	var err error

	if err = godotenv.Load(); err != nil {
		log.Println("No .env file loaded, copy .env.example to .env first if in development")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger := common.GetLogger()

	dbInstance, err := app.OpenDB(cfg)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}

	ctx := context.Background()
	service, err := app.New(ctx, cfg, dbInstance)
	if err != nil {
		log.Fatal("Failed to build service: ", err)
	}

	sweeper, err := service.StartSweep(cfg.Monitor.SweepCron)
	if err != nil {
		log.Fatal(err)
	}
	if sweeper != nil {
		defer sweeper.Stop()
	}

	defaultRate := cfg.Server.DefaultRate
	defaultBurst := cfg.Server.DefaultBurst
	limiterDesc := fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", defaultRate, defaultBurst)

	if grpcHostPort := cfg.Server.GRPCHostPort; grpcHostPort != "" {
		logger.Info("Starting gRPC server on port " + grpcHostPort)
		go func() {
			iotGrpcServer := iotGrpc.IOTServer{
				Iot:              service.Iot,
				RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(defaultRate), defaultBurst),
			}
			s := iotGrpcServer.NewServer()
			logger.Info("gRPC server created with:", zap.String("default_limiter", limiterDesc))

			listener, err := net.Listen("tcp", grpcHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}

			logger.Info("start gRPC server on " + grpcHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	httpHostPort := cfg.Server.HTTPHostPort
	if httpHostPort == "" {
		// fallback to default http port
		httpHostPort = ":1080"
	}

	rs := &iotHttp.RestfulServer{
		Server:           gin.Default(),
		Iot:              service.Iot,
		Index:            service.Index,
		Uploader:         service.Uploader,
		Completer:        service.Completer,
		RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(defaultRate), defaultBurst),
		SearchResults:    cfg.Knowledge.SearchResults,
	}
	rs.Setup()

	logger.Info("http server created with:", zap.String("default_limiter", limiterDesc))

	logger.Info("Starting HTTP server on: " + httpHostPort)
	if err := rs.Server.Run(httpHostPort); err != nil {
		log.Fatalf("http server failed to serve: %v", err)
	}
}
