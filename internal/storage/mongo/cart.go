package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// cartDoc is the stored shape of a cart. Product references are kept as hex
// strings rather than ObjectIDs: they are weak references, and a dangling or
// foreign id must round-trip unchanged instead of failing the write.
type cartDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Products []cartItemDoc      `bson:"products"`
}

type cartItemDoc struct {
	Product  string `bson:"product"`
	Quantity int    `bson:"quantity"`
}

// CartStore implements cart.Store on the "carts" collection, resolving
// product references against the "products" collection on reads.
type CartStore struct {
	carts    *mongo.Collection
	products *mongo.Collection
}

// NewCartStore returns a CartStore using the given connection.
func NewCartStore(conn *Conn) *CartStore {
	return &CartStore{
		carts:    conn.db.Collection("carts"),
		products: conn.db.Collection("products"),
	}
}

// List returns all carts without populating product references.
func (s *CartStore) List(ctx context.Context) ([]cart.Cart, error) {
	cursor, err := s.carts.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "listing carts")
	}
	defer cursor.Close(ctx)

	var docs []cartDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding carts")
	}

	carts := make([]cart.Cart, len(docs))
	for i, doc := range docs {
		carts[i] = doc.toDomain()
	}
	return carts, nil
}

// Get returns the cart with its product references populated. Items whose
// product no longer exists keep the bare id with a nil Product.
func (s *CartStore) Get(ctx context.Context, id string) (*cart.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, cart.ErrNotFound
	}

	var doc cartDoc
	if err := s.carts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting cart %q", id)
	}

	c := doc.toDomain()
	if err := s.populate(ctx, &c); err != nil {
		return nil, errors.Wrapf(err, "populating cart %q", id)
	}
	return &c, nil
}

// Create inserts a new empty cart.
func (s *CartStore) Create(ctx context.Context) (*cart.Cart, error) {
	res, err := s.carts.InsertOne(ctx, bson.M{"products": bson.A{}})
	if err != nil {
		return nil, errors.Wrap(err, "inserting cart")
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected inserted id type")
	}
	return &cart.Cart{ID: oid.Hex(), Items: []cart.Item{}}, nil
}

// Save replaces the stored item list of the cart with id c.ID.
func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return cart.ErrNotFound
	}

	items := make([]cartItemDoc, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemDoc{Product: it.ProductID, Quantity: it.Quantity}
	}

	res, err := s.carts.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"products": items}},
	)
	if err != nil {
		return errors.Wrapf(err, "saving cart %q", c.ID)
	}
	if res.MatchedCount == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// populate batch-fetches the referenced products and attaches them to the
// cart's items. Unparseable ids are skipped; they cannot match any document.
func (s *CartStore) populate(ctx context.Context, c *cart.Cart) error {
	if len(c.Items) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, it := range c.Items {
		if oid, err := primitive.ObjectIDFromHex(it.ProductID); err == nil {
			ids = append(ids, oid)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return err
	}

	byID := make(map[string]productDoc, len(docs))
	for _, doc := range docs {
		byID[doc.ID.Hex()] = doc
	}
	for i := range c.Items {
		if doc, ok := byID[c.Items[i].ProductID]; ok {
			p := doc.toDomain()
			c.Items[i].Product = &p
		}
	}
	return nil
}

func (doc cartDoc) toDomain() cart.Cart {
	items := make([]cart.Item, len(doc.Products))
	for i, it := range doc.Products {
		items[i] = cart.Item{ProductID: it.Product, Quantity: it.Quantity}
	}
	return cart.Cart{ID: doc.ID.Hex(), Items: items}
}
