package bookings

import (
	"context"

	"wayfare/db"
	"wayfare/models"
	"wayfare/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the persistence surface the booking handlers work against.
// FindByID reports a missing record as mongo.ErrNoDocuments so handlers can
// keep not-found apart from a store failure. Tests use an in-memory
// implementation.
type Store interface {
	List(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error)
	Insert(ctx context.Context, bk models.Booking) (primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, bk models.Booking) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type mongoStore struct {
	coll *mongo.Collection
}

// NewStore wraps the bookings collection.
func NewStore(s *db.Store) Store {
	return &mongoStore{coll: s.Bookings}
}

func (s *mongoStore) List(ctx context.Context) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return utils.FindAndDecode[models.Booking](ctx, s.coll, bson.M{}, opts)
}

func (s *mongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Booking, error) {
	var bk models.Booking
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&bk)
	return bk, err
}

func (s *mongoStore) Insert(ctx context.Context, bk models.Booking) (primitive.ObjectID, error) {
	result, err := s.coll.InsertOne(ctx, bk)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

func (s *mongoStore) Update(ctx context.Context, id primitive.ObjectID, bk models.Booking) error {
	update := bson.M{"$set": bson.M{
		"name":            bk.Name,
		"email":           bk.Email,
		"selectedPackage": bk.SelectedPackage,
		"date":            bk.Date,
		"guests":          bk.Guests,
		"totalPrice":      bk.TotalPrice,
		"updatedAt":       bk.UpdatedAt,
	}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *mongoStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
