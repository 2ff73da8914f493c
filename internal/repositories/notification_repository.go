package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/socialpulse/backend/internal/metrics"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, n *models.Notification) error
	CreateMany(ctx context.Context, ns []*models.Notification) error
	UpsertUnreadMessage(ctx context.Context, n *models.Notification) (*models.Notification, error)
	GetByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkAsRead(ctx context.Context, id, recipient string) error
	MarkAllAsRead(ctx context.Context, recipient string) (int64, error)
	MarkConversationRead(ctx context.Context, recipient, conversationID string) (int64, error)
	Delete(ctx context.Context, id, recipient string) error
	DeleteRead(ctx context.Context, recipient string) (int64, error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// EnsureIndexes creates the TTL index that reaps expired notifications and the
// partial unique index that keeps one unread message notification per
// (recipient, sender, conversation).
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("expires_at_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("recipient_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "sender", Value: 1},
				{Key: "category", Value: 1},
				{Key: "ref_id", Value: 1},
			},
			Options: options.Index().
				SetName("unread_message_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"category": models.CategoryNewMessage,
					"read":     false,
				}),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

// Create inserts a notification and sets its ID.
func (r *MongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		metrics.NotificationWriteErrors.WithLabelValues(string(n.Category)).Inc()
		return fmt.Errorf("insert notification: %w", err)
	}
	metrics.NotificationsWritten.WithLabelValues(string(n.Category), "insert").Inc()
	return nil
}

// CreateMany inserts all notifications in one round trip and sets their IDs.
func (r *MongoNotificationRepository) CreateMany(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ns))
	for i, n := range ns {
		n.ID = primitive.NewObjectID()
		docs[i] = n
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		metrics.NotificationWriteErrors.WithLabelValues(string(ns[0].Category)).Inc()
		return fmt.Errorf("insert notifications: %w", err)
	}
	metrics.NotificationsWritten.WithLabelValues(string(ns[0].Category), "insert").Add(float64(len(ns)))
	return nil
}

// UpsertUnreadMessage refreshes the unread new_message notification for
// n's (recipient, sender, conversation) or creates it. Title, body, link and
// expiry are replaced; creation time and read state of an existing document
// are kept. Returns the stored document.
func (r *MongoNotificationRepository) UpsertUnreadMessage(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	filter := bson.M{
		"recipient": n.Recipient,
		"sender":    n.Sender,
		"category":  models.CategoryNewMessage,
		"read":      false,
		"ref_id":    n.RefID,
		"ref_kind":  models.RefConversation,
	}
	update := bson.M{
		"$set": bson.M{
			"title":      n.Title,
			"body":       n.Body,
			"link":       n.Link,
			"expires_at": n.ExpiresAt,
		},
		"$setOnInsert": bson.M{
			"created_at": n.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Notification
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert inserted first; this attempt now matches it.
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		metrics.NotificationWriteErrors.WithLabelValues(string(models.CategoryNewMessage)).Inc()
		return nil, fmt.Errorf("upsert message notification: %w", err)
	}
	metrics.NotificationsWritten.WithLabelValues(string(models.CategoryNewMessage), "upsert").Inc()
	return &stored, nil
}

// GetByRecipient returns one page of a user's notifications, newest first, and the total count.
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"recipient": recipient}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
}

func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id, recipient string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "recipient": recipient},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipient string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// MarkConversationRead marks the recipient's unread message notifications for
// one conversation as read.
func (r *MongoNotificationRepository) MarkConversationRead(ctx context.Context, recipient, conversationID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{
			"recipient": recipient,
			"category":  models.CategoryNewMessage,
			"ref_id":    conversationID,
			"ref_kind":  models.RefConversation,
			"read":      false,
		},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark conversation notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id, recipient string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "recipient": recipient})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRead removes every read notification of recipient.
func (r *MongoNotificationRepository) DeleteRead(ctx context.Context, recipient string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"recipient": recipient, "read": true})
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return res.DeletedCount, nil
}
