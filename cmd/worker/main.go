package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/internal/bootstrap"
	"github.com/OFFIS-RIT/kiwi-linker/internal/metrics"
	"github.com/OFFIS-RIT/kiwi-linker/internal/queue"
	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger/console"

	"github.com/labstack/echo/v4"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	// linker
	l, closeIndexes, err := bootstrap.OpenLinker(ctx, bootstrap.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to open linker", "err", err)
	}
	defer closeIndexes()
	annotator := annotate.NewAnnotator(l, util.GetEnvInt("ANNOTATE_PARALLEL", 8))
	m := metrics.New()

	metricsSrv := echo.New()
	metricsSrv.HideBanner = true
	metricsSrv.HidePort = true
	metricsSrv.GET("/metrics", echo.WrapHandler(m.Handler()))
	go func() {
		port := util.GetEnvString("METRICS_PORT", "9091")
		if err := metricsSrv.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server stopped", "err", err)
		}
	}()
	defer metricsSrv.Close()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.AnnotateQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}
	if err := queue.DeclareResults(ch); err != nil {
		logger.Fatal("Failed to declare results queue", "err", err)
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	prefetch := util.GetEnvInt("WORKER_PREFETCH", 1)
	if err := consumerCh.Qos(prefetch, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AnnotateQueue,
		fmt.Sprintf("%s_consumer_%s", queue.AnnotateQueue, util.NewCorrelationID()),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnnotateQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.AnnotateQueue, "prefetch", prefetch)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.AnnotateQueue)
				return
			}

			startTime := time.Now()
			processingErr := queue.ProcessAnnotateMessage(ctx, annotator, ch, msg.Body)
			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.AnnotateQueue, "err", processingErr)
				m.Message(queue.AnnotateQueue, "failed")
				queue.HandleProcessingError(ch, msg, queue.AnnotateQueue, processingErr)
				continue
			}

			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
			m.Message(queue.AnnotateQueue, "ok")
			logger.Info(
				"Message processed successfully",
				"queue", queue.AnnotateQueue,
				"duration", time.Since(startTime).Round(time.Millisecond),
			)
		}
	}
}
