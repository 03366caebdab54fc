package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/kafka"
	"github.com/UnendingLoop/WatermarkCompositor/internal/repository"
	"github.com/UnendingLoop/WatermarkCompositor/internal/service"
	"github.com/UnendingLoop/WatermarkCompositor/internal/storage"
	"github.com/UnendingLoop/WatermarkCompositor/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Listening to interruptions through context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// подкллючиться к хранилищу
	strg := storage.NewObjectStorage(ctx, appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresTaskRepo(dbConn)
	// создаем экземпляр сервиса
	resultPrefix := appConfig.GetString("RESULT_KEY")
	var svc TaskWorkerService = service.NewTaskService(repo, worker.NoopPublisher{}, strg, service.KeyPrefixes{})

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if err := kafka.WaitKafkaReady(ctx, broker, 5*time.Second); err != nil {
		log.Fatalf("Kafka is unreachable: %v", err)
	}
	// подключиться к кафке как читатель
	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	topic := appConfig.GetString("KAFKA_TOPIC")
	groupID := appConfig.GetString("KAFKA_GROUPID")
	cons := wbfkafka.NewConsumer([]string{broker}, topic, groupID)

	cons.StartConsuming(ctx, queue, retryStrategy)

	// Собираем воедино все что нужно воркеру и запускаем его
	wrk := worker.NewWorkerInstance(strg, svc, queue, cons, resultPrefix, compositeWorkers(appConfig))
	go wrk.StartWorker(ctx)

	// Waiting for interruption to stop context to start Graceful shutdown
	<-ctx.Done()

	shutdown(cons, dbConn)
	log.Println("Exiting worker...")
}

// compositeWorkers reads COMPOSITE_WORKERS; zero lets the compositor pick GOMAXPROCS.
func compositeWorkers(cfg *config.Config) int {
	n := cfg.GetInt("COMPOSITE_WORKERS")
	if n < 0 {
		log.Printf("Ignoring negative COMPOSITE_WORKERS=%d", n)
		return 0
	}
	return n
}

func shutdown(cons *wbfkafka.Consumer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := cons.Close(); err != nil {
		log.Println("Failed to close Kafka-reader:", err)
	}
	log.Println("Kafka-consumer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
