package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
)

type imageDocument struct {
	Key         string    `bson:"_id"`
	Location    string    `bson:"location"`
	UploadedBy  string    `bson:"uploadedBy"`
	ContentType string    `bson:"contentType"`
	Size        int64     `bson:"size"`
	CreatedAt   time.Time `bson:"createdAt"`
}

// MongoImageRepository stores image metadata in a MongoDB collection keyed by storage key.
type MongoImageRepository struct {
	images *mongo.Collection
}

func NewMongoImageRepository(db *mongo.Database) *MongoImageRepository {
	return &MongoImageRepository{images: db.Collection(imagesCollection)}
}

func (r *MongoImageRepository) Create(ctx context.Context, image *models.StoredImage) error {
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	_, err := r.images.InsertOne(ctx, imageDocument{
		Key:         image.Key,
		Location:    image.Location,
		UploadedBy:  image.UploadedBy,
		ContentType: image.ContentType,
		Size:        image.Size,
		CreatedAt:   image.CreatedAt,
	})
	if err != nil {
		return apperr.Storage(err, "failed to save image metadata")
	}
	return nil
}

func (r *MongoImageRepository) Get(ctx context.Context, key string) (*models.StoredImage, error) {
	var doc imageDocument
	err := r.images.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("image %q not found", key)
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to get image metadata")
	}
	return &models.StoredImage{
		Key:         doc.Key,
		Location:    doc.Location,
		UploadedBy:  doc.UploadedBy,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (r *MongoImageRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.images.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return apperr.Storage(err, "failed to delete image metadata")
	}
	return nil
}
