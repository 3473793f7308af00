package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nmoreira/tienda-api/internal/domain/product"
)

var _ product.Store = (*ProductStore)(nil)

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Code        string             `bson:"code"`
	Price       float64            `bson:"price"`
	Status      bool               `bson:"status"`
	Stock       int                `bson:"stock"`
	Category    string             `bson:"category"`
	Thumbnails  []string           `bson:"thumbnails"`
}

// ProductStore implements product.Store on the "products" collection.
type ProductStore struct {
	coll *mongo.Collection
}

// NewProductStore returns a ProductStore using the given connection.
func NewProductStore(conn *Conn) *ProductStore {
	return &ProductStore{coll: conn.db.Collection("products")}
}

// List returns all products in natural collection order.
func (s *ProductStore) List(ctx context.Context) ([]product.Product, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding products")
	}

	products := make([]product.Product, len(docs))
	for i, doc := range docs {
		products[i] = doc.toDomain()
	}
	return products, nil
}

// Get returns a single product by its ObjectID hex. A malformed id means no
// document can match, so it surfaces as ErrNotFound.
func (s *ProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrNotFound
	}

	var doc productDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}

	p := doc.toDomain()
	return &p, nil
}

// Create inserts p and assigns it the generated ObjectID hex.
func (s *ProductStore) Create(ctx context.Context, p *product.Product) error {
	res, err := s.coll.InsertOne(ctx, toProductDoc(*p))
	if err != nil {
		return errors.Wrap(err, "inserting product")
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("unexpected inserted id type")
	}
	p.ID = oid.Hex()
	return nil
}

// Update applies the non-nil changes with $set and returns the updated record.
func (s *ProductStore) Update(ctx context.Context, id string, changes product.Update) (*product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrNotFound
	}

	set := bson.M{}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Code != nil {
		set["code"] = *changes.Code
	}
	if changes.Price != nil {
		set["price"] = changes.Price.InexactFloat64()
	}
	if changes.Status != nil {
		set["status"] = *changes.Status
	}
	if changes.Stock != nil {
		set["stock"] = *changes.Stock
	}
	if changes.Category != nil {
		set["category"] = *changes.Category
	}
	if changes.Thumbnails != nil {
		set["thumbnails"] = *changes.Thumbnails
	}

	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	var doc productDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "updating product %q", id)
	}

	p := doc.toDomain()
	return &p, nil
}

// Delete removes the document and returns the removed record.
func (s *ProductStore) Delete(ctx context.Context, id string) (*product.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, product.ErrNotFound
	}

	var doc productDoc
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "deleting product %q", id)
	}

	p := doc.toDomain()
	return &p, nil
}

func (doc productDoc) toDomain() product.Product {
	thumbs := doc.Thumbnails
	if thumbs == nil {
		thumbs = []string{}
	}
	return product.Product{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		Code:        doc.Code,
		Price:       decimal.NewFromFloat(doc.Price),
		Status:      doc.Status,
		Stock:       doc.Stock,
		Category:    doc.Category,
		Thumbnails:  thumbs,
	}
}

func toProductDoc(p product.Product) productDoc {
	return productDoc{
		Title:       p.Title,
		Description: p.Description,
		Code:        p.Code,
		Price:       p.Price.InexactFloat64(),
		Status:      p.Status,
		Stock:       p.Stock,
		Category:    p.Category,
		Thumbnails:  p.Thumbnails,
	}
}
