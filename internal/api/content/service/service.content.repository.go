package contentsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "meta_travel/internal/api/base/service"
	"meta_travel/internal/common"
	"meta_travel/internal/editor"
	"meta_travel/internal/global"
)

// ContentRepositoryService là repository tài liệu nội dung trên MongoDB.
// Implement editor.DocumentRepository cho mọi loại nội dung: collection đích
// được tra từ schema của loại nội dung, payload lưu nguyên dạng document.
type ContentRepositoryService struct{}

// NewContentRepositoryService tạo mới ContentRepositoryService
func NewContentRepositoryService() *ContentRepositoryService {
	return &ContentRepositoryService{}
}

// serviceFor trả về base service cho collection của loại nội dung
func (s *ContentRepositoryService) serviceFor(entityType string) (*basesvc.BaseServiceMongoImpl[bson.M], error) {
	schema, exist := global.RegistrySchemas.Get(entityType)
	if !exist {
		return nil, fmt.Errorf("loại nội dung %q chưa được đăng ký: %w", entityType, common.ErrNotFound)
	}
	collection, exist := global.RegistryCollections.Get(schema.CollectionName)
	if !exist {
		return nil, fmt.Errorf("collection %q chưa được đăng ký: %w", schema.CollectionName, common.ErrNotFound)
	}
	return basesvc.NewBaseServiceMongo[bson.M](collection), nil
}

// Get đọc payload tài liệu theo ID
func (s *ContentRepositoryService) Get(ctx context.Context, entityType string, id string) (editor.Payload, error) {
	svc, err := s.serviceFor(entityType)
	if err != nil {
		return nil, err
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrInvalidFormat
	}

	doc, err := svc.FindOneById(ctx, objID)
	if err != nil {
		return nil, err
	}

	payload := normalizePayload(doc)
	payload["id"] = id
	delete(payload, "_id")
	return payload, nil
}

// Create tạo tài liệu mới, trả về ID server cấp
func (s *ContentRepositoryService) Create(ctx context.Context, entityType string, payload editor.Payload) (string, error) {
	svc, err := s.serviceFor(entityType)
	if err != nil {
		return "", err
	}

	data := bson.M{}
	for k, v := range payload {
		if k == "id" {
			continue
		}
		data[k] = v
	}

	created, err := svc.InsertOne(ctx, data)
	if err != nil {
		return "", err
	}

	objID, ok := created["_id"].(primitive.ObjectID)
	if !ok {
		return "", common.ErrInvalidFormat
	}
	return objID.Hex(), nil
}

// Replace ghi đè toàn bộ payload tài liệu.
// Dùng $set của mọi section thay vì ReplaceOne để giữ createdAt.
func (s *ContentRepositoryService) Replace(ctx context.Context, entityType string, id string, payload editor.Payload) error {
	svc, err := s.serviceFor(entityType)
	if err != nil {
		return err
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrInvalidFormat
	}

	data := bson.M{}
	for k, v := range payload {
		if k == "id" {
			continue
		}
		data[k] = v
	}

	_, err = svc.UpdateById(ctx, objID, data)
	return err
}

// Reorder sắp xếp lại một section danh sách theo orderedIDs.
// Đọc mảng hiện tại, dựng lại theo thứ tự mới với position viết lại liên tục,
// ghi đè cả mảng rồi trả về vị trí authoritative cho client đối chiếu.
func (s *ContentRepositoryService) Reorder(ctx context.Context, entityType string, ref editor.CollectionRef, orderedIDs []string) (map[string]int, error) {
	svc, err := s.serviceFor(entityType)
	if err != nil {
		return nil, err
	}

	objID, err := primitive.ObjectIDFromHex(ref.DocumentID)
	if err != nil {
		return nil, common.ErrInvalidFormat
	}

	doc, err := svc.FindOneById(ctx, objID)
	if err != nil {
		return nil, err
	}

	rawItems, ok := doc[ref.Section].(primitive.A)
	if !ok {
		return nil, fmt.Errorf("section %q không phải danh sách: %w", ref.Section, common.ErrInvalidInput)
	}

	// Index các phần tử hiện có theo ID
	byID := make(map[string]bson.M, len(rawItems))
	for _, rawItem := range rawItems {
		item, ok := rawItem.(bson.M)
		if !ok {
			continue
		}
		if id, ok := item["id"].(string); ok {
			byID[id] = item
		}
	}

	if len(orderedIDs) != len(byID) {
		return nil, fmt.Errorf("danh sách ID không khớp với section %q: %w", ref.Section, common.ErrInvalidInput)
	}

	// Dựng lại mảng theo thứ tự mới, viết lại position liên tục
	newItems := make(bson.A, 0, len(orderedIDs))
	positions := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ID %q không tồn tại trong section %q: %w", id, ref.Section, common.ErrInvalidInput)
		}
		item["position"] = i
		newItems = append(newItems, item)
		positions[id] = i
	}

	if _, err := svc.UpdateById(ctx, objID, bson.M{ref.Section: newItems}); err != nil {
		return nil, err
	}

	return positions, nil
}

// normalizePayload chuyển các kiểu BSON (primitive.M, primitive.A, ObjectID,
// int32/int64) về kiểu Go thuần để engine không phụ thuộc mongo-driver
func normalizePayload(doc bson.M) editor.Payload {
	out := make(editor.Payload, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.M:
		m := make(map[string]interface{}, len(val))
		for k, inner := range val {
			m[k] = normalizeValue(inner)
		}
		return m
	case primitive.A:
		arr := make([]interface{}, len(val))
		for i, inner := range val {
			arr[i] = normalizeValue(inner)
		}
		return arr
	case primitive.ObjectID:
		return val.Hex()
	case int32:
		return int(val)
	case int64:
		return int(val)
	default:
		return v
	}
}
