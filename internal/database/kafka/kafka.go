package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Sarah_AI/internal/config"

	"github.com/segmentio/kafka-go"
)

// KafkaClient holds the writer used for pipeline telemetry.
type KafkaClient struct {
	Writer *kafka.Writer
	Conn   *kafka.Conn // administrative connection
	Config *config.KafkaConfig
}

var (
	client  *KafkaClient
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the Kafka client as a singleton. On
// first use it connects to the cluster and creates the telemetry topic if
// it does not exist yet.
func GetClient(cfg *config.KafkaConfig) (*KafkaClient, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("no Kafka brokers configured")
			return
		}
		if cfg.LogTopic == "" {
			initErr = fmt.Errorf("no Kafka log topic configured")
			return
		}

		conn, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("failed to connect to Kafka: %w", err)
			return
		}

		partitions, err := conn.ReadPartitions()
		if err != nil {
			initErr = fmt.Errorf("failed to read Kafka partitions: %w", err)
			conn.Close()
			return
		}
		topicExists := false
		for _, p := range partitions {
			if p.Topic == cfg.LogTopic {
				topicExists = true
				break
			}
		}

		if !topicExists {
			err = conn.CreateTopics(kafka.TopicConfig{
				Topic:             cfg.LogTopic,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
			if err != nil {
				initErr = fmt.Errorf("failed to create Kafka topic '%s': %w", cfg.LogTopic, err)
				conn.Close()
				return
			}
			log.Printf("created Kafka topic '%s'", cfg.LogTopic)
		}

		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.LogTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		}

		log.Println("initialized Kafka client")
		client = &KafkaClient{Writer: writer, Conn: conn, Config: cfg}
	})

	return client, initErr
}

// Close safely closes the Kafka connections.
func (c *KafkaClient) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Kafka writer: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Kafka connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing Kafka client: %v", errs)
	}
	return nil
}

// HealthCheck verifies the cluster is reachable.
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka client not initialized")
	}
	_, err := c.Conn.Controller()
	return err
}
