package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// ProductRepository writes the catalog collection the cart listing joins
// against. The API only reads it; writes come from the seed command.
type ProductRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewProductRepository(db *mongo.Database, timeout time.Duration) *ProductRepository {
	return &ProductRepository{
		coll:    db.Collection(productsCollection),
		timeout: queryTimeout(timeout),
	}
}

type mongoProduct struct {
	ID     int64   `bson:"_id"`
	Title  string  `bson:"title"`
	Artist string  `bson:"artist"`
	Price  float64 `bson:"price"`
	Genre  string  `bson:"genre,omitempty"`
}

// Upsert replaces or inserts every product by ID in one unordered bulk write
// and returns how many documents were created or changed.
func (r *ProductRepository) Upsert(ctx context.Context, products []domain.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(mongoProduct{
				ID:     p.ID,
				Title:  p.Title,
				Artist: p.Artist,
				Price:  p.Price,
				Genre:  p.Genre,
			}).
			SetUpsert(true))
	}

	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, storageErr("upsert products", err)
	}
	return res.UpsertedCount + res.ModifiedCount, nil
}
