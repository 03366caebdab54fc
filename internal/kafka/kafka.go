// Package kafka provides methods for initiating kafka-topics for the task queue and a kafka readiness-probing
package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// InitKafkaTopics - creates the task topics, treating already existing ones as success
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil && topicsReady(resp.Errors) {
			log.Println("All topics created successfully!")
			return nil
		}
		if err != nil {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
		}

		select {
		case <-ctx.Done():
			log.Println("InitKafkaTopics canceled or timed out")
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func topicsReady(errs map[string]error) bool {
	ready := true
	for k, v := range errs {
		switch {
		case v == nil, errors.Is(v, kafkago.TopicAlreadyExists):
		default:
			log.Printf("Topic %q creation error: %v", k, v)
			ready = false
		}
	}
	return ready
}

// WaitKafkaReady - blocks until the broker accepts TCP connections or ctx is done
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return nil
		}
		log.Printf("Kafka not ready, retrying in %v...", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
