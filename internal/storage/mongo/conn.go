// Package mongo implements the document-store persistence backend on
// MongoDB. Identifiers are native ObjectIDs and cart product references are
// populated with a batch fetch at read time.
package mongo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Conn wraps a mongo client together with a cached liveness flag. Backend
// selection reads the flag on every operation, so a connection that drops
// mid-session moves traffic to the fallback store without a restart.
type Conn struct {
	client *mongo.Client
	db     *mongo.Database
	live   atomic.Bool
}

// Connect dials the server and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Conn, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(err, "ping mongodb")
	}

	c := &Conn{client: client, db: client.Database(dbName)}
	c.live.Store(true)
	return c, nil
}

// Live reports the result of the most recent ping.
func (c *Conn) Live() bool {
	return c.live.Load()
}

// Ping checks the server and updates the cached liveness flag.
func (c *Conn) Ping(ctx context.Context) error {
	err := c.client.Ping(ctx, readpref.Primary())
	c.live.Store(err == nil)
	return err
}

// Monitor pings the server on the given interval until ctx is cancelled,
// keeping the liveness flag current. Transitions are logged.
func (c *Conn) Monitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				was := c.Live()
				pingCtx, cancel := context.WithTimeout(ctx, interval)
				err := c.Ping(pingCtx)
				cancel()
				if now := c.Live(); now != was {
					if now {
						zctx.From(ctx).Info("MongoDB connection restored")
					} else {
						zctx.From(ctx).Warn("MongoDB connection lost, falling back to file store", zap.Error(err))
					}
				}
			}
		}
	}()
}

// Close disconnects the client.
func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
