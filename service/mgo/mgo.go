package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"linkup/logger"
)

type Config struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize int
	MaxRetry    int
}

var (
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
)

// Init connects with bounded retry and keeps a process-wide handle.
func Init(ctx context.Context, cfg Config) error {
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 3
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	var (
		cli *mongo.Client
		err error
	)
	for i := 0; i < cfg.MaxRetry; i++ {
		cli, err = connect(ctx, opts)
		if err == nil {
			break
		}
		logger.Warnf("[mgo] connect attempt %d failed: %v", i+1, err)
		time.Sleep(time.Second / 2)
	}
	if err != nil {
		return errors.WithMessage(err, "failed to connect to MongoDB")
	}

	mu.Lock()
	client = cli
	db = cli.Database(cfg.Database)
	mu.Unlock()
	return nil
}

func connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cli, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(cctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(cctx)
		return nil, err
	}
	return cli, nil
}

func GetDB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	return db
}

// WithTx runs fn inside a multi-document transaction. Row-level check-and-set
// guards still apply inside fn; the transaction only scopes multi-write units
// (seen batch + counter reset, mutual friendship materialization).
func WithTx(ctx context.Context, fn func(ctx mongo.SessionContext) error) error {
	mu.RLock()
	cli := client
	mu.RUnlock()
	if cli == nil {
		return errors.New("mongo not initialized")
	}
	sess, err := cli.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func Close(ctx context.Context) {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		_ = client.Disconnect(ctx)
		client, db = nil, nil
	}
}
