// Package main (in api-subfolder) provides launch of the whole application except worker
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/kafka"
	"github.com/UnendingLoop/WatermarkCompositor/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkCompositor/internal/repository"
	"github.com/UnendingLoop/WatermarkCompositor/internal/service"
	"github.com/UnendingLoop/WatermarkCompositor/internal/storage"
	"github.com/UnendingLoop/WatermarkCompositor/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
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
	err := zlog.SetLevel("info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)

	// подключиться к хранилищу
	strg := storage.NewObjectStorage(ctx, appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresTaskRepo(dbConn)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if err := kafka.WaitKafkaReady(ctx, broker, 5*time.Second); err != nil {
		log.Fatalf("Kafka is unreachable: %v", err)
	}
	// подключиться к кафке как продюсер
	topic := appConfig.GetString("KAFKA_TOPIC")
	if err := kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic); err != nil {
		log.Fatalf("Failed to init Kafka topics: %v", err)
	}
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// создаем экземпляр сервиса
	prefixes := service.KeyPrefixes{
		Source:    appConfig.GetString("SOURCE_KEY"),
		Watermark: appConfig.GetString("WM_KEY"),
	}
	var svc TaskAPIService = service.NewTaskService(repo, pub, strg, prefixes)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewTaskHandler(svc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/watermarks", handlers.Create)        // создание задачи
	engine.GET("/watermarks/:id", handlers.LoadResult) // загрузка результата
	engine.GET("/watermarks", handlers.GetAllTasks)    // получение списка задач с пагинацией и сортировкой
	engine.DELETE("/watermarks/:id", handlers.Delete)  // удаление

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// запускаем фонового воркера для отслеживания подвисших задач
	go recoveryLoop(ctx, svc)

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, pub, dbConn)
	log.Println("Exiting API...")
}

func recoveryLoop(ctx context.Context, svc TaskAPIService) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovery loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.ReviveOrphans(ctx, 20)
		}
	}
}

func shutdown(srv *http.Server, pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server:", err)
	}

	// Closing Kafka connection:
	if err := pub.Close(); err != nil {
		log.Println("Failed to close Kafka-writer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
