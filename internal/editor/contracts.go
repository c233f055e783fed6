package editor

import "context"

// StoredObject là kết quả lưu một file lên object store
type StoredObject struct {
	URL  string // URL công khai của file
	Path string // Đường dẫn trên object store
}

// PutInput là một file cần lưu lên object store
type PutInput struct {
	Name        string // Tên file gốc
	ContentType string // MIME type
	Data        []byte // Nội dung file
}

// PutResult là kết quả lưu một file trong batch, theo đúng thứ tự input
type PutResult struct {
	Object StoredObject // Kết quả khi thành công
	Err    error        // Lỗi của riêng file này (các file khác không bị ảnh hưởng)
}

// AssetStore là gateway lưu trữ file media.
// Implementation cụ thể (S3) nằm ở internal/storage.
type AssetStore interface {
	// Put lưu một file với đường dẫn đích cho trước
	Put(ctx context.Context, destPath string, in PutInput) (StoredObject, error)

	// PutMany lưu nhiều file dưới cùng một prefix, trả về kết quả từng file
	// theo đúng thứ tự input. Một file lỗi không làm hỏng các file khác.
	PutMany(ctx context.Context, prefix string, ins []PutInput) []PutResult

	// Delete xóa file theo đường dẫn
	Delete(ctx context.Context, path string) error
}

// CollectionRef định danh một section danh sách của một tài liệu trên server
type CollectionRef struct {
	DocumentID string // ID tài liệu
	Section    string // Tên section
}

// DocumentRepository là kho lưu tài liệu phía server.
// Engine chỉ phụ thuộc interface này; implementation Mongo nằm ở
// internal/api/content/service.
type DocumentRepository interface {
	// Get đọc payload tài liệu theo ID
	Get(ctx context.Context, entityType string, id string) (Payload, error)

	// Create tạo tài liệu mới, trả về ID server cấp
	Create(ctx context.Context, entityType string, payload Payload) (string, error)

	// Replace ghi đè toàn bộ payload tài liệu
	Replace(ctx context.Context, entityType string, id string, payload Payload) error

	// Reorder sắp xếp lại một section danh sách theo danh sách ID,
	// trả về vị trí authoritative của server (map item ID -> position)
	Reorder(ctx context.Context, entityType string, ref CollectionRef, orderedIDs []string) (map[string]int, error)
}
