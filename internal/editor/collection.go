package editor

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Collection là bộ đồng bộ một section danh sách có thứ tự.
// Mọi thay đổi thứ tự được áp dụng lạc quan (optimistic) lên trạng thái cục bộ
// trước khi gọi server; thất bại thì khôi phục từ snapshot.
//
// opMu đảm bảo tối đa một round trip đang bay cho mỗi danh sách:
// lời gọi sau chờ lời gọi trước xong mới bắt đầu, không chạy đè lên nhau.
type Collection struct {
	doc    *Document
	name   string
	state  *SectionState
	repo   DocumentRepository
	assets *AssetManager
	log    *logrus.Entry

	opMu     sync.Mutex
	inFlight bool
	flightMu sync.Mutex
}

// newCollection tạo bộ đồng bộ cho một section danh sách
func newCollection(doc *Document, name string, repo DocumentRepository, assets *AssetManager, log *logrus.Entry) (*Collection, error) {
	state, err := doc.GetSection(name)
	if err != nil {
		return nil, err
	}
	if !state.Schema.IsCollection {
		return nil, NewSchemaError("section %q không phải danh sách", name)
	}
	return &Collection{
		doc:    doc,
		name:   name,
		state:  state,
		repo:   repo,
		assets: assets,
		log:    log.WithField("section", name),
	}, nil
}

// Items trả về các phần tử hiện tại theo thứ tự
func (c *Collection) Items() []*Item {
	return c.state.Items
}

// InFlight cho biết có round trip nào đang bay không
func (c *Collection) InFlight() bool {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	return c.inFlight
}

func (c *Collection) setInFlight(v bool) {
	c.flightMu.Lock()
	c.inFlight = v
	c.flightMu.Unlock()
}

// Append thêm phần tử vào cuối danh sách. Thay đổi cục bộ,
// được lưu lên server ở lần SaveDraft/Publish kế tiếp.
func (c *Collection) Append(item *Item) *Item {
	if item == nil {
		item = &Item{}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if c.state.Schema.ItemKind == ItemRecord && item.Fields == nil {
		item.Fields = make(map[string]interface{}, len(c.state.Schema.Fields))
		for fieldName, constraint := range c.state.Schema.Fields {
			item.Fields[fieldName] = defaultFieldValue(constraint.Kind)
		}
	}
	item.Position = len(c.state.Items)
	c.state.Items = append(c.state.Items, item)
	c.doc.dirty = true
	return item
}

// RemoveAt xóa phần tử tại vị trí index, đánh số lại các phần tử còn lại.
// Asset của phần tử bị xóa được chuyển cho asset manager xử lý vòng đời.
func (c *Collection) RemoveAt(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.state.Items) {
		return NewSchemaError("vị trí %d nằm ngoài danh sách %q (độ dài %d)", index, c.name, len(c.state.Items))
	}

	removed := c.state.Items[index]
	c.state.Items = append(c.state.Items[:index], c.state.Items[index+1:]...)
	for i, it := range c.state.Items {
		it.Position = i
	}
	c.doc.dirty = true

	// Dọn file media của phần tử bị xóa sau khi nó đã rời khỏi tài liệu
	if c.assets != nil {
		if removed.Asset != nil {
			c.assets.ReleaseDetached(ctx, removed.Asset)
		}
		for fieldName, value := range removed.Fields {
			if c.state.Schema.Fields[fieldName].Kind == FieldAsset {
				if ref, ok := value.(*AssetRef); ok && ref != nil {
					c.assets.ReleaseDetached(ctx, ref)
				}
			}
		}
	}

	return nil
}

// MoveUp đổi chỗ phần tử tại index với phần tử đứng trước.
// Phần tử đầu danh sách thì bỏ qua, không báo lỗi.
func (c *Collection) MoveUp(ctx context.Context, index int) error {
	if index <= 0 || index >= len(c.state.Items) {
		return nil
	}
	return c.Reorder(ctx, swappedIDs(c.state.Items, index-1, index))
}

// MoveDown đổi chỗ phần tử tại index với phần tử đứng sau.
// Phần tử cuối danh sách thì bỏ qua, không báo lỗi.
func (c *Collection) MoveDown(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.state.Items)-1 {
		return nil
	}
	return c.Reorder(ctx, swappedIDs(c.state.Items, index, index+1))
}

// swappedIDs trả về danh sách ID hiện tại với hai vị trí đổi chỗ
func swappedIDs(items []*Item, i, j int) []string {
	ids := make([]string, len(items))
	for k, it := range items {
		ids[k] = it.ID
	}
	ids[i], ids[j] = ids[j], ids[i]
	return ids
}

// Reorder sắp xếp lại danh sách theo orderedIDs.
// Thứ tự mới được áp dụng cục bộ ngay để giao diện phản hồi tức thì,
// sau đó gửi lên server. Server lỗi thì khôi phục thứ tự từ snapshot;
// server trả về vị trí authoritative thì đối chiếu lại trạng thái cục bộ.
func (c *Collection) Reorder(ctx context.Context, orderedIDs []string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	byID := make(map[string]*Item, len(c.state.Items))
	for _, it := range c.state.Items {
		byID[it.ID] = it
	}
	if len(orderedIDs) != len(c.state.Items) {
		return NewSchemaError("danh sách ID reorder có %d phần tử, danh sách %q có %d", len(orderedIDs), c.name, len(c.state.Items))
	}
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return NewSchemaError("ID %q không tồn tại trong danh sách %q", id, c.name)
		}
	}

	// Snapshot bản sao sâu của thứ tự server đã xác nhận gần nhất,
	// không chia sẻ con trỏ với các phần tử sắp bị đổi chỗ
	snapshot := make([]*Item, len(c.state.Items))
	for i, it := range c.state.Items {
		snapshot[i] = it.Clone()
	}

	// Áp dụng lạc quan
	reordered := make([]*Item, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		it := byID[id]
		it.Position = i
		reordered = append(reordered, it)
	}
	c.state.Items = reordered
	c.doc.dirty = true

	// Tài liệu chưa lưu thì không có gì trên server để đồng bộ
	if c.doc.ID == "" {
		return nil
	}

	c.setInFlight(true)
	positions, err := c.repo.Reorder(ctx, c.doc.EntityType, CollectionRef{DocumentID: c.doc.ID, Section: c.name}, orderedIDs)
	c.setInFlight(false)

	if err != nil {
		// Khôi phục thứ tự server đã xác nhận gần nhất
		c.state.Items = snapshot
		for i, it := range c.state.Items {
			it.Position = i
		}
		c.log.WithError(err).Warn("Reorder thất bại, đã khôi phục thứ tự cũ")
		return NewTransportError("sắp xếp lại danh sách", err)
	}

	// Đối chiếu với vị trí authoritative của server
	for _, it := range c.state.Items {
		if pos, ok := positions[it.ID]; ok {
			it.Position = pos
		}
	}
	sort.SliceStable(c.state.Items, func(i, j int) bool { return c.state.Items[i].Position < c.state.Items[j].Position })
	for i, it := range c.state.Items {
		it.Position = i
	}

	return nil
}

// UpdateItemField cập nhật một field của phần tử và lưu lên server.
// Khác với Reorder, thất bại không khôi phục giá trị cũ: người dùng còn thấy
// giá trị mình vừa nhập và có thể thử lưu lại.
func (c *Collection) UpdateItemField(ctx context.Context, itemID string, field string, value interface{}) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var item *Item
	for _, it := range c.state.Items {
		if it.ID == itemID {
			item = it
			break
		}
	}
	if item == nil {
		return NewSchemaError("không tìm thấy phần tử %q trong danh sách %q", itemID, c.name)
	}

	switch c.state.Schema.ItemKind {
	case ItemText:
		if field != "text" {
			return NewSchemaError("phần tử text chỉ có field %q", "text")
		}
		s, ok := value.(string)
		if !ok {
			return NewSchemaError("giá trị field text phải là chuỗi")
		}
		item.Text = s
	case ItemRecord:
		constraint, ok := c.state.Schema.Fields[field]
		if !ok {
			return NewSchemaError("field %q không tồn tại trong phần tử của danh sách %q", field, c.name)
		}
		coerced, ok := coerceFieldValue(constraint.Kind, value)
		if !ok {
			return NewSchemaError("giá trị của field %q không đúng kiểu %s", field, constraint.Kind)
		}
		item.Fields[field] = coerced
	case ItemAsset:
		if field != "alt" {
			return NewSchemaError("phần tử ảnh chỉ cho phép cập nhật field %q", "alt")
		}
		s, ok := value.(string)
		if !ok {
			return NewSchemaError("giá trị field alt phải là chuỗi")
		}
		if item.Asset == nil {
			item.Asset = &AssetRef{}
		}
		item.Asset.AltText = s
	}
	c.doc.dirty = true

	// Tài liệu chưa lưu thì chỉ giữ thay đổi cục bộ
	if c.doc.ID == "" {
		return nil
	}

	c.setInFlight(true)
	err := c.repo.Replace(ctx, c.doc.EntityType, c.doc.ID, c.doc.Serialize())
	c.setInFlight(false)

	if err != nil {
		c.log.WithError(err).Warn("Lưu field của phần tử thất bại, giữ giá trị mới để thử lại")
		return NewTransportError("lưu thay đổi phần tử", err)
	}

	return nil
}
