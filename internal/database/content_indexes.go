// Package database - Index cho các collection nội dung.
package database

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateContentIndexes tạo index cho một collection nội dung.
// Gọi lúc khởi động cho từng collection đã đăng ký.
func CreateContentIndexes(ctx context.Context, col *mongo.Collection) error {
	// lifecycleState — lọc danh sách nháp/đã xuất bản trong admin console
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lifecycleState", Value: 1}},
		Options: options.Index().SetName("content_lifecycle"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// (lifecycleState, updatedAt) — danh sách theo trạng thái, mới nhất trước
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "lifecycleState", Value: 1},
			{Key: "updatedAt", Value: -1},
		},
		Options: options.Index().SetName("content_lifecycle_updated"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
