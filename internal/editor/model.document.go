package editor

// LifecycleState là trạng thái vòng đời của tài liệu trên server
type LifecycleState string

const (
	LifecycleUnsaved   LifecycleState = "unsaved"   // Chưa từng lưu lên server
	LifecycleDraft     LifecycleState = "draft"     // Đã lưu nháp
	LifecyclePublished LifecycleState = "published" // Đã xuất bản
)

// Payload là dạng dữ liệu phẳng của tài liệu khi trao đổi với repository
type Payload = map[string]interface{}

// AssetRef tham chiếu đến một file media trong một slot của tài liệu
type AssetRef struct {
	URL         string // URL công khai (rỗng khi chưa upload)
	StoragePath string // Đường dẫn trên object store (rỗng khi chưa upload)
	AltText     string // Mô tả thay thế
	Uploaded    bool   // true nếu file đã nằm trên object store
	Preview     string // Handle xem trước cục bộ (chỉ tồn tại trong phiên, không serialize)
}

// Clone trả về bản sao của AssetRef
func (a *AssetRef) Clone() *AssetRef {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Item là một phần tử trong section dạng danh sách
type Item struct {
	ID       string                 // Định danh phần tử (ổn định qua các lần reorder)
	Position int                    // Vị trí trong danh sách, luôn liên tục 0..n-1
	Text     string                 // Nội dung (dùng cho ItemText)
	Fields   map[string]interface{} // Các field (dùng cho ItemRecord)
	Asset    *AssetRef              // File media (dùng cho ItemAsset)
}

// Clone trả về bản sao sâu của Item
func (it *Item) Clone() *Item {
	c := &Item{
		ID:       it.ID,
		Position: it.Position,
		Text:     it.Text,
		Asset:    it.Asset.Clone(),
	}
	if it.Fields != nil {
		c.Fields = make(map[string]interface{}, len(it.Fields))
		for k, v := range it.Fields {
			c.Fields[k] = v
		}
	}
	return c
}

// SectionState là trạng thái hiện tại của một section trong phiên soạn thảo
type SectionState struct {
	Schema *SectionSchema         // Schema của section
	Fields map[string]interface{} // Giá trị các field (section scalar)
	Items  []*Item                // Các phần tử (section danh sách)
}

// Document là trạng thái đầy đủ của một tài liệu trong phiên soạn thảo
type Document struct {
	ID         string                   // ID trên server (rỗng khi chưa lưu)
	EntityType string                   // Loại nội dung
	Schema     *Schema                  // Schema điều khiển cấu trúc tài liệu
	Sections   map[string]*SectionState // Trạng thái từng section
	Lifecycle  LifecycleState           // Trạng thái vòng đời trên server
	dirty      bool                     // true nếu có thay đổi chưa lưu
}
