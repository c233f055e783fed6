// Package dto định nghĩa cấu trúc request cho API soạn thảo nội dung.
package dto

// OpenSessionInput là dữ liệu mở phiên soạn thảo.
// Có DocumentID thì load tài liệu đã có, không có thì tạo tài liệu mới.
type OpenSessionInput struct {
	EntityType string `json:"entityType" validate:"required,entity_type"` // Loại nội dung
	DocumentID string `json:"documentId,omitempty"`                       // ID tài liệu đã có (optional)
}

// SetFieldInput là dữ liệu cập nhật một field của section scalar
type SetFieldInput struct {
	Section string      `json:"section" validate:"required"` // Tên section
	Field   string      `json:"field" validate:"required"`   // Tên field
	Value   interface{} `json:"value"`                       // Giá trị mới
}

// AppendItemInput là dữ liệu thêm phần tử vào section danh sách
type AppendItemInput struct {
	Section string                 `json:"section" validate:"required"`      // Tên section danh sách
	Text    string                 `json:"text,omitempty" validate:"no_xss"` // Nội dung (danh sách text)
	Fields  map[string]interface{} `json:"fields,omitempty"`                 // Các field (danh sách record)
}

// RemoveItemInput là dữ liệu xóa phần tử khỏi danh sách
type RemoveItemInput struct {
	Section string `json:"section" validate:"required"` // Tên section danh sách
	Index   *int   `json:"index" validate:"required"`   // Vị trí phần tử cần xóa
}

// MoveItemInput là dữ liệu di chuyển phần tử lên/xuống một bậc
type MoveItemInput struct {
	Section   string `json:"section" validate:"required"`                 // Tên section danh sách
	Index     *int   `json:"index" validate:"required"`                   // Vị trí phần tử
	Direction string `json:"direction" validate:"required,oneof=up down"` // Hướng di chuyển
}

// ReorderInput là dữ liệu sắp xếp lại toàn bộ danh sách
type ReorderInput struct {
	Section    string   `json:"section" validate:"required"`          // Tên section danh sách
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"` // Thứ tự ID mới
}

// UpdateItemFieldInput là dữ liệu cập nhật một field của phần tử
type UpdateItemFieldInput struct {
	Section string      `json:"section" validate:"required"` // Tên section danh sách
	ItemID  string      `json:"itemId" validate:"required"`  // ID phần tử
	Field   string      `json:"field" validate:"required"`   // Tên field
	Value   interface{} `json:"value"`                       // Giá trị mới
}

// UploadFileInput là một file gửi lên theo dạng base64
type UploadFileInput struct {
	FileName    string `json:"fileName" validate:"required"`    // Tên file gốc
	ContentType string `json:"contentType" validate:"required"` // MIME type
	Data        string `json:"data" validate:"required"`        // Nội dung file (base64)
}

// UploadAssetInput là dữ liệu upload một file vào một slot
type UploadAssetInput struct {
	Section string          `json:"section" validate:"required"` // Section chứa slot
	Field   string          `json:"field,omitempty"`             // Field asset (slot scalar hoặc field của phần tử)
	ItemID  string          `json:"itemId,omitempty"`            // ID phần tử (slot trong danh sách)
	File    UploadFileInput `json:"file" validate:"required"`    // File cần upload
}

// UploadAssetBatchInput là dữ liệu upload nhiều file vào gallery.
// Mỗi file tạo một phần tử mới ở cuối danh sách, giữ nguyên thứ tự gửi lên.
type UploadAssetBatchInput struct {
	Section string            `json:"section" validate:"required"`          // Section gallery
	Files   []UploadFileInput `json:"files" validate:"required,min=1,dive"` // Các file theo thứ tự
}

// ReleaseAssetInput là dữ liệu gỡ file khỏi một slot
type ReleaseAssetInput struct {
	Section string `json:"section" validate:"required"` // Section chứa slot
	Field   string `json:"field,omitempty"`             // Field asset
	ItemID  string `json:"itemId,omitempty"`            // ID phần tử
}
