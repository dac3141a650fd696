package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Client represents a RabbitMQ client.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// Channel returns the underlying AMQP channel.
func (r *Client) Channel() *amqp.Channel {
	return r.channel
}

// Connection returns the underlying AMQP connection.
func (r *Client) Connection() *amqp.Connection {
	return r.conn
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// connString builds the broker URL from the environment. The host falls
// back to the compose service name.
func connString() string {
	host := os.Getenv("RABBITMQ_HOST")
	if host == "" {
		host = "rabbitmq"
	}

	return fmt.Sprintf(
		"amqp://%s:%s@%s:5672/",
		os.Getenv("RABBITMQ_DEFAULT_USER"),
		os.Getenv("RABBITMQ_DEFAULT_PASS"),
		host,
	)
}

// MustNewClient creates a new RabbitMQ client.
func MustNewClient() *Client {
	conn, err := amqp.Dial(connString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		err := conn.Close()
		if err != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", err))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	exchange := viper.GetString("rabbitmq.exchange")
	if exchange != "" {
		if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			panic(fmt.Sprintf("Failed to declare exchange: %v", err))
		}
	}

	slog.Info("RabbitMQ connected")

	return &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}
}

// Publish sends a payload to the given topic, bounded by the context.
// amqp's Publish has no context support, so the call runs in a goroutine
// and the context only bounds how long the caller waits for it.
func (r *Client) Publish(ctx context.Context, topic, payload string) error {
	done := make(chan error, 1)

	go func() {
		done <- r.channel.Publish(
			r.exchange,
			topic,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        []byte(payload),
			},
		)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
		}

		return nil
	}
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	return r.channel.QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}
