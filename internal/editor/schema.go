package editor

// FieldKind xác định kiểu dữ liệu của một field trong schema
type FieldKind string

const (
	FieldString FieldKind = "string" // Chuỗi ký tự
	FieldInt    FieldKind = "int"    // Số nguyên
	FieldFloat  FieldKind = "float"  // Số thực
	FieldBool   FieldKind = "bool"   // Boolean
	FieldAsset  FieldKind = "asset"  // File media (ảnh, ...)
)

// ItemKind xác định kiểu phần tử của một section dạng danh sách
type ItemKind string

const (
	ItemText   ItemKind = "text"   // Danh sách chuỗi (ví dụ: điểm nổi bật)
	ItemRecord ItemKind = "record" // Danh sách bản ghi nhiều field (ví dụ: ngày trong lịch trình)
	ItemAsset  ItemKind = "asset"  // Danh sách ảnh (gallery)
)

// FieldConstraint mô tả ràng buộc của một field.
// Ràng buộc được khai báo trong schema và kiểm tra khi publish,
// không hardcode trong engine.
type FieldConstraint struct {
	Kind     FieldKind // Kiểu dữ liệu của field
	Required bool      // Bắt buộc phải có giá trị khi publish
	Minimum  *float64  // Giá trị tối thiểu (cho int/float)
	Maximum  *float64  // Giá trị tối đa (cho int/float)
}

// SectionSchema mô tả một section của tài liệu
type SectionSchema struct {
	Name         string                     // Tên section (ví dụ: "basic_info", "gallery")
	IsCollection bool                       // true nếu section là danh sách có thứ tự
	ItemKind     ItemKind                   // Kiểu phần tử (chỉ dùng khi IsCollection)
	MinItems     int                        // Số phần tử tối thiểu khi publish (0 = không ràng buộc)
	Fields       map[string]FieldConstraint // Các field của section (với collection: field của từng phần tử)
}

// Schema mô tả cấu trúc đầy đủ của một loại nội dung.
// Mỗi loại nội dung (tour_package, destination, activity, blog) có một schema riêng,
// tất cả đều chạy qua cùng một engine.
type Schema struct {
	EntityType     string                    // Loại nội dung
	CollectionName string                    // Tên collection MongoDB lưu loại nội dung này
	StoragePrefix  string                    // Prefix đường dẫn lưu file media trên object store
	Sections       map[string]*SectionSchema // Các section của tài liệu
}

// Section trả về schema của section theo tên
func (s *Schema) Section(name string) (*SectionSchema, bool) {
	sec, ok := s.Sections[name]
	return sec, ok
}

// FloatPtr trả về con trỏ tới giá trị float64, dùng khi khai báo ràng buộc min/max
func FloatPtr(v float64) *float64 {
	return &v
}
