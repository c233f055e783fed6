package editor

import (
	"sort"

	"github.com/google/uuid"
)

// NewDocument tạo tài liệu mới chưa lưu theo schema.
// Giá trị mặc định: chuỗi rỗng, số 0, false; section danh sách dạng text
// bắt đầu với một phần tử rỗng để người dùng có chỗ nhập ngay.
func NewDocument(schema *Schema) *Document {
	doc := &Document{
		EntityType: schema.EntityType,
		Schema:     schema,
		Sections:   make(map[string]*SectionState, len(schema.Sections)),
		Lifecycle:  LifecycleUnsaved,
	}

	for name, sec := range schema.Sections {
		state := &SectionState{Schema: sec}
		if sec.IsCollection {
			state.Items = []*Item{}
			if sec.ItemKind == ItemText {
				// Một phần tử rỗng ban đầu cho danh sách text
				state.Items = append(state.Items, &Item{ID: uuid.New().String(), Position: 0})
			}
		} else {
			state.Fields = make(map[string]interface{}, len(sec.Fields))
			for fieldName, constraint := range sec.Fields {
				state.Fields[fieldName] = defaultFieldValue(constraint.Kind)
			}
		}
		doc.Sections[name] = state
	}

	return doc
}

// defaultFieldValue trả về giá trị mặc định theo kiểu field
func defaultFieldValue(kind FieldKind) interface{} {
	switch kind {
	case FieldString:
		return ""
	case FieldInt:
		return 0
	case FieldFloat:
		return 0.0
	case FieldBool:
		return false
	case FieldAsset:
		return (*AssetRef)(nil)
	default:
		return nil
	}
}

// GetSection trả về trạng thái section theo tên.
// Section không tồn tại trong schema là lỗi lập trình.
func (d *Document) GetSection(name string) (*SectionState, error) {
	state, ok := d.Sections[name]
	if !ok {
		return nil, NewSchemaError("section %q không tồn tại trong schema %q", name, d.EntityType)
	}
	return state, nil
}

// SetField gán giá trị cho một field của section scalar.
// Field hoặc section không có trong schema, hoặc giá trị sai kiểu, là lỗi lập trình.
func (d *Document) SetField(section string, field string, value interface{}) error {
	state, err := d.GetSection(section)
	if err != nil {
		return err
	}
	if state.Schema.IsCollection {
		return NewSchemaError("section %q là danh sách, dùng thao tác danh sách thay vì SetField", section)
	}

	constraint, ok := state.Schema.Fields[field]
	if !ok {
		return NewSchemaError("field %q không tồn tại trong section %q", field, section)
	}

	coerced, ok := coerceFieldValue(constraint.Kind, value)
	if !ok {
		return NewSchemaError("giá trị của field %q.%q không đúng kiểu %s", section, field, constraint.Kind)
	}

	state.Fields[field] = coerced
	d.dirty = true
	return nil
}

// coerceFieldValue kiểm tra và chuẩn hóa giá trị theo kiểu field.
// Số từ JSON decode luôn là float64 nên int chấp nhận cả float64 nguyên.
func coerceFieldValue(kind FieldKind, value interface{}) (interface{}, bool) {
	if value == nil {
		if kind == FieldAsset {
			return (*AssetRef)(nil), true
		}
		return nil, false
	}

	switch kind {
	case FieldString:
		s, ok := value.(string)
		return s, ok
	case FieldInt:
		switch v := value.(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return int(v), true
		case float64:
			if v == float64(int(v)) {
				return int(v), true
			}
			return nil, false
		}
		return nil, false
	case FieldFloat:
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int32:
			return float64(v), true
		case int64:
			return float64(v), true
		}
		return nil, false
	case FieldBool:
		b, ok := value.(bool)
		return b, ok
	case FieldAsset:
		a, ok := value.(*AssetRef)
		return a, ok
	}
	return nil, false
}

// Dirty cho biết tài liệu có thay đổi chưa lưu không
func (d *Document) Dirty() bool {
	return d.dirty
}

// markSaved đánh dấu tài liệu đã được lưu thành công
func (d *Document) markSaved() {
	d.dirty = false
}

// Serialize chuyển tài liệu thành payload phẳng để gửi lên repository.
// Section scalar thành map field; section danh sách thành mảng phần tử
// {id, position, ...}; asset thành {url, alt, storagePath}.
// Hydrate(Serialize(doc)) khôi phục tài liệu không mất dữ liệu.
func (d *Document) Serialize() Payload {
	payload := Payload{
		"entityType":     d.EntityType,
		"lifecycleState": string(d.Lifecycle),
	}
	if d.ID != "" {
		payload["id"] = d.ID
	}

	for name, state := range d.Sections {
		if state.Schema.IsCollection {
			items := make([]interface{}, 0, len(state.Items))
			for _, it := range state.Items {
				items = append(items, serializeItem(state.Schema, it))
			}
			payload[name] = items
		} else {
			fields := make(map[string]interface{}, len(state.Fields))
			for fieldName, value := range state.Fields {
				if state.Schema.Fields[fieldName].Kind == FieldAsset {
					fields[fieldName] = serializeAsset(value)
				} else {
					fields[fieldName] = value
				}
			}
			payload[name] = fields
		}
	}

	return payload
}

// serializeItem chuyển một phần tử danh sách thành map
func serializeItem(sec *SectionSchema, it *Item) map[string]interface{} {
	out := map[string]interface{}{
		"id":       it.ID,
		"position": it.Position,
	}
	switch sec.ItemKind {
	case ItemText:
		out["text"] = it.Text
	case ItemRecord:
		for k, v := range it.Fields {
			if sec.Fields[k].Kind == FieldAsset {
				out[k] = serializeAsset(v)
			} else {
				out[k] = v
			}
		}
	case ItemAsset:
		out["asset"] = serializeAssetRef(it.Asset)
	}
	return out
}

// serializeAsset chuyển giá trị field asset thành map
func serializeAsset(value interface{}) interface{} {
	ref, _ := value.(*AssetRef)
	return serializeAssetRef(ref)
}

// serializeAssetRef chuyển AssetRef thành map {url, alt, storagePath}.
// Preview là handle cục bộ của phiên, không được serialize.
func serializeAssetRef(ref *AssetRef) interface{} {
	if ref == nil {
		return nil
	}
	return map[string]interface{}{
		"url":         ref.URL,
		"alt":         ref.AltText,
		"storagePath": ref.StoragePath,
	}
}

// Hydrate tạo tài liệu từ payload đọc về từ repository.
// Field thiếu nhận giá trị mặc định; phần tử danh sách được sắp theo position
// rồi đánh số lại liên tục; phần tử thiếu ID được cấp ID mới.
func Hydrate(schema *Schema, payload Payload) *Document {
	doc := NewDocument(schema)

	if id, ok := payload["id"].(string); ok {
		doc.ID = id
	}
	if ls, ok := payload["lifecycleState"].(string); ok && ls != "" {
		doc.Lifecycle = LifecycleState(ls)
	} else if doc.ID != "" {
		doc.Lifecycle = LifecycleDraft
	}

	for name, state := range doc.Sections {
		raw, ok := payload[name]
		if !ok || raw == nil {
			continue
		}

		if state.Schema.IsCollection {
			rawItems, ok := raw.([]interface{})
			if !ok {
				continue
			}
			items := make([]*Item, 0, len(rawItems))
			for _, rawItem := range rawItems {
				m, ok := rawItem.(map[string]interface{})
				if !ok {
					continue
				}
				items = append(items, hydrateItem(state.Schema, m))
			}
			// Sắp theo position rồi đánh số lại để đảm bảo 0..n-1 liên tục
			sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
			for i, it := range items {
				it.Position = i
			}
			// Mảng rỗng trong payload là danh sách người dùng đã dọn sạch,
			// giữ nguyên rỗng; phần tử mặc định chỉ dành cho key vắng mặt
			state.Items = items
		} else {
			m, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			for fieldName, constraint := range state.Schema.Fields {
				rawValue, ok := m[fieldName]
				if !ok {
					continue
				}
				if constraint.Kind == FieldAsset {
					state.Fields[fieldName] = hydrateAssetRef(rawValue)
				} else if coerced, ok := coerceFieldValue(constraint.Kind, rawValue); ok {
					state.Fields[fieldName] = coerced
				}
			}
		}
	}

	doc.dirty = false
	return doc
}

// hydrateItem tạo phần tử danh sách từ map
func hydrateItem(sec *SectionSchema, m map[string]interface{}) *Item {
	it := &Item{}
	if id, ok := m["id"].(string); ok && id != "" {
		it.ID = id
	} else {
		it.ID = uuid.New().String()
	}
	if pos, ok := coerceFieldValue(FieldInt, m["position"]); ok {
		it.Position = pos.(int)
	}

	switch sec.ItemKind {
	case ItemText:
		if text, ok := m["text"].(string); ok {
			it.Text = text
		}
	case ItemRecord:
		it.Fields = make(map[string]interface{}, len(sec.Fields))
		for fieldName, constraint := range sec.Fields {
			rawValue, ok := m[fieldName]
			if !ok {
				it.Fields[fieldName] = defaultFieldValue(constraint.Kind)
				continue
			}
			if constraint.Kind == FieldAsset {
				it.Fields[fieldName] = hydrateAssetRef(rawValue)
			} else if coerced, ok := coerceFieldValue(constraint.Kind, rawValue); ok {
				it.Fields[fieldName] = coerced
			} else {
				it.Fields[fieldName] = defaultFieldValue(constraint.Kind)
			}
		}
	case ItemAsset:
		it.Asset = hydrateAssetRef(m["asset"])
	}

	return it
}

// hydrateAssetRef tạo AssetRef từ map {url, alt, storagePath}.
// Uploaded được suy ra từ việc có URL hay không.
func hydrateAssetRef(raw interface{}) *AssetRef {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	ref := &AssetRef{}
	if url, ok := m["url"].(string); ok {
		ref.URL = url
	}
	if alt, ok := m["alt"].(string); ok {
		ref.AltText = alt
	}
	if sp, ok := m["storagePath"].(string); ok {
		ref.StoragePath = sp
	}
	ref.Uploaded = ref.URL != ""
	return ref
}

// ReferencesStoragePath kiểm tra còn slot nào trong tài liệu
// đang giữ file đã upload với đường dẫn cho trước không
func (d *Document) ReferencesStoragePath(path string) bool {
	if path == "" {
		return false
	}
	for _, state := range d.Sections {
		if state.Schema.IsCollection {
			for _, it := range state.Items {
				if refHoldsPath(it.Asset, path) {
					return true
				}
				for fieldName, value := range it.Fields {
					if state.Schema.Fields[fieldName].Kind == FieldAsset {
						ref, _ := value.(*AssetRef)
						if refHoldsPath(ref, path) {
							return true
						}
					}
				}
			}
		} else {
			for fieldName, value := range state.Fields {
				if state.Schema.Fields[fieldName].Kind == FieldAsset {
					ref, _ := value.(*AssetRef)
					if refHoldsPath(ref, path) {
						return true
					}
				}
			}
		}
	}
	return false
}

func refHoldsPath(ref *AssetRef, path string) bool {
	return ref != nil && ref.Uploaded && ref.StoragePath == path
}

// SlotRef định danh một slot chứa asset trong tài liệu.
// Slot scalar: Section + Field. Slot trong danh sách: Section + ItemID.
type SlotRef struct {
	Section string // Tên section
	Field   string // Tên field (slot scalar hoặc field của phần tử record)
	ItemID  string // ID phần tử (slot trong danh sách)
}

// assetAt trả về AssetRef hiện tại ở slot
func (d *Document) assetAt(slot SlotRef) (*AssetRef, error) {
	state, err := d.GetSection(slot.Section)
	if err != nil {
		return nil, err
	}

	if slot.ItemID == "" {
		if state.Schema.IsCollection {
			return nil, NewSchemaError("slot trong section danh sách %q cần ItemID", slot.Section)
		}
		constraint, ok := state.Schema.Fields[slot.Field]
		if !ok || constraint.Kind != FieldAsset {
			return nil, NewSchemaError("field %q.%q không phải field asset", slot.Section, slot.Field)
		}
		ref, _ := state.Fields[slot.Field].(*AssetRef)
		return ref, nil
	}

	if !state.Schema.IsCollection {
		return nil, NewSchemaError("section %q không phải danh sách nhưng slot có ItemID", slot.Section)
	}
	for _, it := range state.Items {
		if it.ID != slot.ItemID {
			continue
		}
		if slot.Field != "" {
			constraint, ok := state.Schema.Fields[slot.Field]
			if !ok || constraint.Kind != FieldAsset {
				return nil, NewSchemaError("field %q.%q không phải field asset", slot.Section, slot.Field)
			}
			ref, _ := it.Fields[slot.Field].(*AssetRef)
			return ref, nil
		}
		return it.Asset, nil
	}
	return nil, NewSchemaError("không tìm thấy phần tử %q trong section %q", slot.ItemID, slot.Section)
}

// setAssetAt gán AssetRef vào slot
func (d *Document) setAssetAt(slot SlotRef, ref *AssetRef) error {
	state, err := d.GetSection(slot.Section)
	if err != nil {
		return err
	}

	if slot.ItemID == "" {
		if state.Schema.IsCollection {
			return NewSchemaError("slot trong section danh sách %q cần ItemID", slot.Section)
		}
		constraint, ok := state.Schema.Fields[slot.Field]
		if !ok || constraint.Kind != FieldAsset {
			return NewSchemaError("field %q.%q không phải field asset", slot.Section, slot.Field)
		}
		state.Fields[slot.Field] = ref
		d.dirty = true
		return nil
	}

	if !state.Schema.IsCollection {
		return NewSchemaError("section %q không phải danh sách nhưng slot có ItemID", slot.Section)
	}
	for _, it := range state.Items {
		if it.ID != slot.ItemID {
			continue
		}
		if slot.Field != "" {
			constraint, ok := state.Schema.Fields[slot.Field]
			if !ok || constraint.Kind != FieldAsset {
				return NewSchemaError("field %q.%q không phải field asset", slot.Section, slot.Field)
			}
			if it.Fields == nil {
				it.Fields = make(map[string]interface{})
			}
			it.Fields[slot.Field] = ref
		} else {
			it.Asset = ref
		}
		d.dirty = true
		return nil
	}
	return NewSchemaError("không tìm thấy phần tử %q trong section %q", slot.ItemID, slot.Section)
}
