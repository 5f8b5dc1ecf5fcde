package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/vinylshop/storefront/internal/core/domain"
)

const cartNS = "storefront.cart_items"

func counterReply(name string, seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: name},
		{Key: "seq", Value: seq},
	}})
}

func duplicateKeyReply() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error",
	})
}

func commandFailure() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    2,
		Name:    "BadValue",
		Message: "boom",
	})
}

func TestCartRepository_Increment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: int64(3)},
			{Key: "user_id", Value: int64(1)},
			{Key: "product_id", Value: int64(5)},
			{Key: "quantity", Value: int32(2)},
		}}))

		item, err := repo.Increment(context.Background(), 1, 5)
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if item.ID != 3 || item.Quantity != 2 || item.ProductID != 5 {
			t.Fatalf("unexpected item: %+v", item)
		}
	})

	mt.Run("missing row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		if _, err := repo.Increment(context.Background(), 1, 5); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("storage failure", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		if _, err := repo.Increment(context.Background(), 1, 5); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestCartRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(counterReply(cartCollection, 7), mtest.CreateSuccessResponse())

		item, err := repo.Insert(context.Background(), 1, 5)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if item.ID != 7 || item.Quantity != 1 || item.UserID != 1 || item.ProductID != 5 {
			t.Fatalf("unexpected item: %+v", item)
		}
	})

	mt.Run("pair already present", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(counterReply(cartCollection, 8), duplicateKeyReply())

		if _, err := repo.Insert(context.Background(), 1, 5); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("sequence failure", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		if _, err := repo.Insert(context.Background(), 1, 5); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})

	mt.Run("insert failure", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(counterReply(cartCollection, 9), commandFailure())

		if _, err := repo.Insert(context.Background(), 1, 5); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestCartRepository_SumQuantity(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("with rows", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cartNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: int32(4)},
		}))

		total, err := repo.SumQuantity(context.Background(), 1)
		if err != nil || total != 4 {
			t.Fatalf("expected 4, got %d (%v)", total, err)
		}
	})

	mt.Run("empty cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cartNS, mtest.FirstBatch))

		total, err := repo.SumQuantity(context.Background(), 1)
		if err != nil || total != 0 {
			t.Fatalf("expected 0, got %d (%v)", total, err)
		}
	})
}

func TestCartRepository_ListLines(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("joined rows", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cartNS, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: int64(1)},
				{Key: "quantity", Value: int32(2)},
				{Key: "title", Value: "Blue Train"},
				{Key: "artist", Value: "John Coltrane"},
				{Key: "price", Value: 24.99},
			},
			bson.D{
				{Key: "_id", Value: int64(4)},
				{Key: "quantity", Value: int32(1)},
				{Key: "title", Value: "Kind of Blue"},
				{Key: "artist", Value: "Miles Davis"},
				{Key: "price", Value: int32(30)},
			},
		))

		lines, err := repo.ListLines(context.Background(), 1)
		if err != nil {
			t.Fatalf("ListLines: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if lines[0].CartItemID != 1 || lines[0].Quantity != 2 || lines[0].Artist != "John Coltrane" || lines[0].Price != 24.99 {
			t.Fatalf("unexpected first line: %+v", lines[0])
		}
		if lines[1].Price != 30 {
			t.Fatalf("integer price not widened: %+v", lines[1])
		}
	})

	mt.Run("empty cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cartNS, mtest.FirstBatch))

		lines, err := repo.ListLines(context.Background(), 1)
		if err != nil {
			t.Fatalf("ListLines: %v", err)
		}
		if lines == nil || len(lines) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", lines)
		}
	})
}

func TestCartRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owned row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		if err := repo.Delete(context.Background(), 1, 3); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	})

	mt.Run("missing or foreign row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		if err := repo.Delete(context.Background(), 1, 3); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete all scoped to user", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}))

		n, err := repo.DeleteAll(context.Background(), 7)
		if err != nil || n != 2 {
			t.Fatalf("expected 2 deleted, got %d (%v)", n, err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "delete" {
			t.Fatalf("expected a delete command, got %+v", evt)
		}
		filter, ok := evt.Command.Lookup("deletes", "0", "q").DocumentOK()
		if !ok {
			t.Fatalf("delete command has no filter: %s", evt.Command)
		}
		if uid, ok := filter.Lookup("user_id").Int64OK(); !ok || uid != 7 {
			t.Fatalf("expected filter on user_id 7, got %s", filter)
		}
		if elems, _ := filter.Elements(); len(elems) != 1 {
			t.Fatalf("expected user_id as the only filter key, got %s", filter)
		}
	})

	mt.Run("delete all on empty cart", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		n, err := repo.DeleteAll(context.Background(), 7)
		if err != nil || n != 0 {
			t.Fatalf("expected 0 deleted and no error, got %d (%v)", n, err)
		}
	})

	mt.Run("delete all storage failure", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		if _, err := repo.DeleteAll(context.Background(), 7); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestCartRepository_ClearEverything(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("every row", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(5)}))

		n, err := repo.ClearEverything(context.Background())
		if err != nil || n != 5 {
			t.Fatalf("expected 5 deleted, got %d (%v)", n, err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "delete" {
			t.Fatalf("expected a delete command, got %+v", evt)
		}
		filter, ok := evt.Command.Lookup("deletes", "0", "q").DocumentOK()
		if !ok {
			t.Fatalf("delete command has no filter: %s", evt.Command)
		}
		if elems, _ := filter.Elements(); len(elems) != 0 {
			t.Fatalf("expected an empty filter, got %s", filter)
		}
	})

	mt.Run("nothing to clear", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		n, err := repo.ClearEverything(context.Background())
		if err != nil || n != 0 {
			t.Fatalf("expected 0 deleted and no error, got %d (%v)", n, err)
		}
	})

	mt.Run("storage failure", func(mt *mtest.T) {
		repo := NewCartRepository(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		if _, err := repo.ClearEverything(context.Background()); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}
