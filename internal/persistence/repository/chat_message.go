package repository

import (
	"context"
	"time"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatMessageRepository struct {
	db         *mongo.Database
	messageTTL time.Duration
}

func NewChatMessageRepository(database *mongo.Database, messageTTL time.Duration) domain.ChatMessageRepository {
	return &chatMessageRepository{
		db:         database,
		messageTTL: messageTTL,
	}
}

// Save upserts by message id. A broker redelivery replaces the document
// with identical content instead of inserting a second record.
func (r *chatMessageRepository) Save(ctx context.Context, msg *domain.ChatMessage) error {
	collection := r.db.Collection(db.ChatMessagesCollection)

	filter := bson.M{"_id": msg.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, msg, opts)
	return err
}

func (r *chatMessageRepository) GetByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	filter := bson.M{"room_id": roomID}
	return r.find(ctx, filter, page, size)
}

// GetMediaByRoomID lists messages carrying attachments or non-text content.
func (r *chatMessageRepository) GetMediaByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	filter := bson.M{
		"room_id": roomID,
		"$or": []bson.M{
			{"content_type": bson.M{"$ne": domain.ContentText}},
			{"attachments.0": bson.M{"$exists": true}},
		},
	}
	return r.find(ctx, filter, page, size)
}

func (r *chatMessageRepository) find(ctx context.Context, filter bson.M, page, size int) ([]domain.ChatMessage, error) {
	collection := r.db.Collection(db.ChatMessagesCollection)

	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 30
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *chatMessageRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.ChatMessagesCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.messageTTL.Seconds())),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
