package siterepo

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const pingTimeout = 5 * time.Second

var _ ports.SiteSource = (*MongoSiteRepository)(nil)

// MongoSiteRepository implements ports.SiteSource over the warehouses and hotspots
// collections.
type MongoSiteRepository struct {
	warehouses *mongo.Collection
	hotspots   *mongo.Collection
}

func NewMongoSiteRepository(db *mongo.Database) *MongoSiteRepository {
	return &MongoSiteRepository{
		warehouses: db.Collection(WarehousesCollection),
		hotspots:   db.Collection(HotspotsCollection),
	}
}

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

func (r *MongoSiteRepository) LoadSites(ctx context.Context) ([]site.Site, error) {
	facilities, err := r.load(ctx, r.warehouses, site.Facility)
	if err != nil {
		return nil, err
	}

	relays, err := r.load(ctx, r.hotspots, site.RelayPoint)
	if err != nil {
		return nil, err
	}

	return append(facilities, relays...), nil
}

func (r *MongoSiteRepository) load(ctx context.Context, coll *mongo.Collection, kind site.Kind) ([]site.Site, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []siteDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}

	return toDomainAll(docs, kind)
}
