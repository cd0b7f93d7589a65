package notifications

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection name used by NewMongoStorage.
const DefaultMongoCollection = "notifications"

// MongoStorage implements Storage on a MongoDB collection. Read receipts
// are embedded in the document as a read_by array; idempotence comes from
// the filtered $push in MarkRead.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage creates a MongoDB-backed notification storage.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{coll: db.Collection(DefaultMongoCollection)}
}

type notificationDoc struct {
	ID         string           `bson:"_id"`
	Title      string           `bson:"title"`
	Message    string           `bson:"message"`
	Kind       string           `bson:"kind"`
	Scope      string           `bson:"scope"`
	Recipients []string         `bson:"recipients,omitempty"`
	CreatedBy  string           `bson:"created_by"`
	CreatedAt  time.Time        `bson:"created_at"`
	ExpiresAt  *time.Time       `bson:"expires_at,omitempty"`
	ReadBy     []readReceiptDoc `bson:"read_by"`
}

type readReceiptDoc struct {
	UserID string    `bson:"user_id"`
	ReadAt time.Time `bson:"read_at"`
}

func toDoc(n Notification) notificationDoc {
	doc := notificationDoc{
		ID:         n.ID,
		Title:      n.Title,
		Message:    n.Message,
		Kind:       string(n.Kind),
		Scope:      string(n.Scope),
		Recipients: n.Recipients,
		CreatedBy:  n.CreatedBy,
		CreatedAt:  n.CreatedAt,
		ExpiresAt:  n.ExpiresAt,
		ReadBy:     []readReceiptDoc{},
	}
	for _, r := range n.ReadBy {
		doc.ReadBy = append(doc.ReadBy, readReceiptDoc(r))
	}
	return doc
}

func (d notificationDoc) toDomain() Notification {
	n := Notification{
		ID:         d.ID,
		Title:      d.Title,
		Message:    d.Message,
		Kind:       Kind(d.Kind),
		Scope:      Scope(d.Scope),
		Recipients: d.Recipients,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt,
		ExpiresAt:  d.ExpiresAt,
	}
	for _, r := range d.ReadBy {
		n.ReadBy = append(n.ReadBy, ReadReceipt(r))
	}
	return n
}

// visibleFilter matches notifications in scope for the user and not expired.
func visibleFilter(userID string, now time.Time) bson.M {
	return bson.M{
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"scope": string(ScopeGlobal)},
				bson.M{"recipients": userID},
			}},
			bson.M{"$or": bson.A{
				bson.M{"expires_at": bson.M{"$exists": false}},
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": now}},
			}},
		},
	}
}

func (s *MongoStorage) Create(ctx context.Context, n Notification) (Notification, error) {
	n = normalized(n, time.Now())
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}

	if _, err := s.coll.InsertOne(ctx, toDoc(n)); err != nil {
		return Notification{}, errors.Join(ErrStorage, err)
	}
	return n, nil
}

func (s *MongoStorage) ListVisibleFor(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	cursor, err := s.coll.Find(ctx, visibleFilter(userID, time.Now()),
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	defer cursor.Close(ctx)

	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	notifications := make([]Notification, 0, len(docs))
	for _, d := range docs {
		notifications = append(notifications, d.toDomain())
	}
	return notifications, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, notificationID, userID string) error {
	inScope := bson.M{"$or": bson.A{
		bson.M{"scope": string(ScopeGlobal)},
		bson.M{"recipients": userID},
	}}

	// The filter only matches when the user has no receipt yet, so the
	// $push can never duplicate an entry.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"$and": bson.A{
			bson.M{"_id": notificationID},
			inScope,
			bson.M{"read_by.user_id": bson.M{"$ne": userID}},
		}},
		bson.M{"$push": bson.M{"read_by": readReceiptDoc{UserID: userID, ReadAt: time.Now()}}},
	)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No match: the id is unknown, out of scope for the user, or already
	// read. Only the last one is a success.
	count, err := s.coll.CountDocuments(ctx, bson.M{"$and": bson.A{
		bson.M{"_id": notificationID},
		inScope,
	}})
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead runs as a single UpdateMany, which gives the snapshot
// semantics documented on the Storage interface.
func (s *MongoStorage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	filter := visibleFilter(userID, time.Now())
	filter["read_by.user_id"] = bson.M{"$ne": userID}

	res, err := s.coll.UpdateMany(ctx, filter,
		bson.M{"$push": bson.M{"read_by": readReceiptDoc{UserID: userID, ReadAt: time.Now()}}},
	)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(res.ModifiedCount), nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	filter := visibleFilter(userID, time.Now())
	filter["read_by.user_id"] = bson.M{"$ne": userID}

	count, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return int(count), nil
}
