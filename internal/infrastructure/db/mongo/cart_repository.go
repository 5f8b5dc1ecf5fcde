package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vinylshop/storefront/internal/core/domain"
)

const (
	cartCollection     = "cart_items"
	productsCollection = "products"
)

// CartRepository implements ports.CartRepository. The unique
// (user_id, product_id) index is what keeps one row per pair.
type CartRepository struct {
	coll    *mongo.Collection
	ids     *sequence
	timeout time.Duration
}

func NewCartRepository(db *mongo.Database, timeout time.Duration) *CartRepository {
	return &CartRepository{
		coll:    db.Collection(cartCollection),
		ids:     newSequence(db, cartCollection),
		timeout: queryTimeout(timeout),
	}
}

type mongoCartItem struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	ProductID int64     `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m mongoCartItem) toDomain() *domain.CartItem {
	return &domain.CartItem{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// Increment bumps the quantity of an existing row in one findAndModify.
func (r *CartRepository) Increment(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{
		"$inc": bson.M{"quantity": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoCartItem
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("increment cart item", err)
	}
	return doc.toDomain(), nil
}

// Insert creates the first row for a pair. A duplicate-key rejection from the
// unique pair index is reported as domain.ErrConflict.
func (r *CartRepository) Insert(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := mongoCartItem{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, storageErr("insert cart item", err)
	}
	return doc.toDomain(), nil
}

func (r *CartRepository) SumQuantity(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$quantity"}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, storageErr("sum cart quantity", err)
	}
	defer cur.Close(ctx)

	var res []struct {
		Total int `bson:"total"`
	}
	if err := cur.All(ctx, &res); err != nil {
		return 0, storageErr("decode cart quantity", err)
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Total, nil
}

// ListLines joins the user's rows with the products collection. Rows whose
// product no longer exists are dropped, like an inner join.
func (r *CartRepository) ListLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         productsCollection,
			"localField":   "product_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$project", Value: bson.M{
			"quantity": 1,
			"title":    "$product.title",
			"artist":   "$product.artist",
			"price":    "$product.price",
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storageErr("list cart", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID       int64   `bson:"_id"`
		Quantity int     `bson:"quantity"`
		Title    string  `bson:"title"`
		Artist   string  `bson:"artist"`
		Price    float64 `bson:"price"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, storageErr("decode cart", err)
	}

	lines := make([]domain.CartLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, domain.CartLine{
			CartItemID: row.ID,
			Quantity:   row.Quantity,
			Title:      row.Title,
			Artist:     row.Artist,
			Price:      row.Price,
		})
	}
	return lines, nil
}

// Delete removes itemID only when it belongs to userID; ownership is part of
// the filter, so a foreign row looks exactly like a missing one.
func (r *CartRepository) Delete(ctx context.Context, userID, itemID int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": itemID, "user_id": userID})
	if err != nil {
		return storageErr("delete cart item", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, storageErr("clear cart", err)
	}
	return res.DeletedCount, nil
}

// ClearEverything empties every cart. Maintenance use only.
func (r *CartRepository) ClearEverything(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, storageErr("clear all carts", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the unique (user_id, product_id) index. Its user_id
// prefix also serves the per-user queries.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_product"),
	})
	return err
}
