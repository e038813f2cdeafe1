package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store holds the Mongo client and the two collections the services work
// with. It is built once at startup and passed into the handlers so tests can
// swap in their own database.
type Store struct {
	Client   *mongo.Client
	Packages *mongo.Collection
	Bookings *mongo.Collection
}

// Connect opens the Mongo connection, verifies it with a ping and wires up
// the collections.
func Connect(ctx context.Context, uri string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, err
	}

	database := client.Database("travel")
	return &Store{
		Client:   client,
		Packages: database.Collection("packages"),
		Bookings: database.Collection("bookings"),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
