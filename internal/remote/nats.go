package remote

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/hexchat/chat-sync/pkg/logger"
)

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
	Bucket   string
}

// DefaultBucket is the KV bucket holding all chat records.
const DefaultBucket = "CHATS"

// NATSStore is a Store backed by a NATS JetStream key-value bucket. Paths
// map to KV keys with "/" segments joined by ".".
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	logger *logger.Logger
}

// Connect establishes a connection to NATS and binds the chats bucket,
// creating it when missing.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*NATSStore, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := ensureBucket(ctx, js, bucket)
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSStore{conn: nc, kv: kv, logger: log}, nil
}

func ensureBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Per-user chat threads and the global share index",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// Close closes the NATS connection.
func (s *NATSStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// IsConnected reports whether the NATS connection is up.
func (s *NATSStore) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Write overwrites the value at path.
func (s *NATSStore) Write(ctx context.Context, path string, value json.RawMessage) error {
	if _, err := s.kv.Put(ctx, pathToKey(path), value); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Read returns the value at path, or (nil, nil) when absent.
func (s *NATSStore) Read(ctx context.Context, path string) (json.RawMessage, error) {
	entry, err := s.kv.Get(ctx, pathToKey(path))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entry.Value(), nil
}

// ReadSubtree lists the keys under prefix and reads each leaf.
func (s *NATSStore) ReadSubtree(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer lister.Stop()

	keyPrefix := pathToKey(prefix) + "."
	out := make(map[string]json.RawMessage)
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, keyPrefix)
		if strings.Contains(rest, ".") {
			continue
		}
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		out[rest] = entry.Value()
	}
	return out, nil
}

func pathToKey(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
