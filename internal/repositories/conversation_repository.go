package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	FindOrCreateDirect(ctx context.Context, a, b string) (*models.Conversation, error)
	ListForUser(ctx context.Context, user string, skip, limit int64) ([]models.Conversation, error)
	UpdateLastMessage(ctx context.Context, id primitive.ObjectID, last models.LastMessage) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection("conversations")}
}

func (r *MongoConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var conv models.Conversation
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

// FindOrCreateDirect returns the conversation between a and b, creating it on first use.
func (r *MongoConversationRepository) FindOrCreateDirect(ctx context.Context, a, b string) (*models.Conversation, error) {
	now := time.Now()
	filter := bson.M{"participants": bson.M{"$all": bson.A{a, b}, "$size": 2}}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": bson.A{a, b},
			"created_at":   now,
			"updated_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv); err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return &conv, nil
}

// ListForUser returns the user's conversations, most recently active first.
func (r *MongoConversationRepository) ListForUser(ctx context.Context, user string, skip, limit int64) ([]models.Conversation, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": user}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return conversations, nil
}

// UpdateLastMessage stores the conversation's last-message summary.
func (r *MongoConversationRepository) UpdateLastMessage(ctx context.Context, id primitive.ObjectID, last models.LastMessage) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_message": last, "updated_at": last.SentAt}},
	)
	if err != nil {
		return fmt.Errorf("update last message: %w", err)
	}
	return nil
}
