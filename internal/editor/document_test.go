package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo là DocumentRepository trong bộ nhớ cho test
type fakeRepo struct {
	mu     sync.Mutex
	docs   map[string]Payload
	nextID int

	failCreate  bool
	failReplace bool
	failReorder bool

	// reorderPositions ghi đè vị trí authoritative server trả về
	reorderPositions map[string]int

	createCalls  int
	replaceCalls int
	reorderCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]Payload)}
}

func (r *fakeRepo) Get(ctx context.Context, entityType string, id string) (Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("không tìm thấy tài liệu %q", id)
	}
	return doc, nil
}

func (r *fakeRepo) Create(ctx context.Context, entityType string, payload Payload) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreate {
		return "", fmt.Errorf("server không phản hồi")
	}
	r.nextID++
	id := fmt.Sprintf("doc-%d", r.nextID)
	r.docs[id] = payload
	return id, nil
}

func (r *fakeRepo) Replace(ctx context.Context, entityType string, id string, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	if r.failReplace {
		return fmt.Errorf("server không phản hồi")
	}
	r.docs[id] = payload
	return nil
}

func (r *fakeRepo) Reorder(ctx context.Context, entityType string, ref CollectionRef, orderedIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reorderCalls++
	if r.failReorder {
		return nil, fmt.Errorf("server không phản hồi")
	}
	if r.reorderPositions != nil {
		return r.reorderPositions, nil
	}
	positions := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		positions[id] = i
	}
	return positions, nil
}

// fakeStore là AssetStore trong bộ nhớ cho test
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	failPut bool
	// failPutNames đánh dấu các file sẽ lỗi khi PutMany
	failPutNames map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(ctx context.Context, destPath string, in PutInput) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut || s.failPutNames[in.Name] {
		return StoredObject{}, fmt.Errorf("object store không phản hồi")
	}
	s.objects[destPath] = in.Data
	return StoredObject{URL: "https://cdn.test/" + destPath, Path: destPath}, nil
}

func (s *fakeStore) PutMany(ctx context.Context, prefix string, ins []PutInput) []PutResult {
	results := make([]PutResult, len(ins))
	for i, in := range ins {
		obj, err := s.Put(ctx, prefix+"/"+in.Name, in)
		results[i] = PutResult{Object: obj, Err: err}
	}
	return results
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *fakeStore) deletedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}

// newTestSchema trả về schema thu nhỏ có đủ các dạng section
func newTestSchema() *Schema {
	return &Schema{
		EntityType:     "tour_package",
		CollectionName: "tour_packages",
		StoragePrefix:  "media/test",
		Sections: map[string]*SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]FieldConstraint{
					"title":  {Kind: FieldString, Required: true},
					"price":  {Kind: FieldFloat, Required: true, Minimum: FloatPtr(0)},
					"rating": {Kind: FieldFloat, Minimum: FloatPtr(0), Maximum: FloatPtr(5)},
					"cover":  {Kind: FieldAsset, Required: true},
				},
			},
			"gallery": {
				Name:         "gallery",
				IsCollection: true,
				ItemKind:     ItemAsset,
				MinItems:     1,
			},
			"highlights": {
				Name:         "highlights",
				IsCollection: true,
				ItemKind:     ItemText,
				MinItems:     1,
			},
			"itinerary": {
				Name:         "itinerary",
				IsCollection: true,
				ItemKind:     ItemRecord,
				Fields: map[string]FieldConstraint{
					"day_title": {Kind: FieldString, Required: true},
					"image":     {Kind: FieldAsset},
				},
			},
		},
	}
}

func testPolicy() UploadPolicy {
	return UploadPolicy{
		AllowedTypes: []string{"image/jpeg", "image/png"},
		MaxSizeBytes: 1024,
	}
}

func newTestSession(repo *fakeRepo, store *fakeStore) *Session {
	return NewSession("session-1", Actor{UserID: "user-1", OrganizationID: "org-1"}, newTestSchema(), repo, store, testPolicy())
}

func TestNewDocumentDefaults(t *testing.T) {
	doc := NewDocument(newTestSchema())

	assert.Equal(t, LifecycleUnsaved, doc.Lifecycle)
	assert.Empty(t, doc.ID)
	assert.False(t, doc.Dirty())

	basic, err := doc.GetSection("basic_info")
	require.NoError(t, err)
	assert.Equal(t, "", basic.Fields["title"])
	assert.Equal(t, 0.0, basic.Fields["price"])
	assert.Equal(t, (*AssetRef)(nil), basic.Fields["cover"])

	// Danh sách text bắt đầu với một phần tử rỗng để người dùng nhập ngay
	highlights, err := doc.GetSection("highlights")
	require.NoError(t, err)
	require.Len(t, highlights.Items, 1)
	assert.Equal(t, "", highlights.Items[0].Text)
	assert.NotEmpty(t, highlights.Items[0].ID)

	gallery, err := doc.GetSection("gallery")
	require.NoError(t, err)
	assert.Empty(t, gallery.Items)
}

func TestSetFieldSchemaErrors(t *testing.T) {
	doc := NewDocument(newTestSchema())

	// Section không tồn tại
	err := doc.SetField("khong_ton_tai", "title", "x")
	assert.True(t, IsSchemaError(err))

	// Field không tồn tại
	err = doc.SetField("basic_info", "khong_ton_tai", "x")
	assert.True(t, IsSchemaError(err))

	// SetField trên section danh sách
	err = doc.SetField("gallery", "title", "x")
	assert.True(t, IsSchemaError(err))

	// Giá trị sai kiểu
	err = doc.SetField("basic_info", "title", 42)
	assert.True(t, IsSchemaError(err))

	// Lỗi không để lại thay đổi nào
	assert.False(t, doc.Dirty())
}

func TestSetFieldCoercion(t *testing.T) {
	doc := NewDocument(newTestSchema())

	// Số từ JSON decode là float64, field float nhận trực tiếp
	require.NoError(t, doc.SetField("basic_info", "price", 990000.0))
	require.NoError(t, doc.SetField("basic_info", "rating", 4.5))
	require.NoError(t, doc.SetField("basic_info", "title", "Tour Đà Nẵng 3N2Đ"))

	basic, err := doc.GetSection("basic_info")
	require.NoError(t, err)
	assert.Equal(t, 990000.0, basic.Fields["price"])
	assert.Equal(t, "Tour Đà Nẵng 3N2Đ", basic.Fields["title"])
	assert.True(t, doc.Dirty())
}

func TestSerializeHydrateRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	session := newTestSession(repo, store)
	doc := session.Doc

	require.NoError(t, doc.SetField("basic_info", "title", "Tour Hạ Long"))
	require.NoError(t, doc.SetField("basic_info", "price", 1500000.0))
	require.NoError(t, doc.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/media/test/cover.jpg",
		StoragePath: "media/test/cover.jpg",
		AltText:     "Vịnh Hạ Long",
		Uploaded:    true,
	}))

	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	require.NoError(t, highlights.UpdateItemField(context.Background(), highlights.Items()[0].ID, "text", "Du thuyền qua đêm"))
	highlights.Append(&Item{Text: "Chèo kayak"})

	itinerary, err := session.Collection("itinerary")
	require.NoError(t, err)
	day1 := itinerary.Append(nil)
	require.NoError(t, itinerary.UpdateItemField(context.Background(), day1.ID, "day_title", "Ngày 1: Hà Nội - Hạ Long"))

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	photo := gallery.Append(&Item{Asset: &AssetRef{
		URL:         "https://cdn.test/media/test/photo.jpg",
		StoragePath: "media/test/photo.jpg",
		Uploaded:    true,
	}})

	payload := doc.Serialize()
	restored := Hydrate(doc.Schema, payload)

	// Section scalar giữ nguyên giá trị
	basic, err := restored.GetSection("basic_info")
	require.NoError(t, err)
	assert.Equal(t, "Tour Hạ Long", basic.Fields["title"])
	assert.Equal(t, 1500000.0, basic.Fields["price"])
	cover, ok := basic.Fields["cover"].(*AssetRef)
	require.True(t, ok)
	require.NotNil(t, cover)
	assert.Equal(t, "media/test/cover.jpg", cover.StoragePath)
	assert.Equal(t, "Vịnh Hạ Long", cover.AltText)
	assert.True(t, cover.Uploaded)

	// Danh sách giữ nguyên thứ tự, ID và nội dung
	restoredHighlights, err := restored.GetSection("highlights")
	require.NoError(t, err)
	require.Len(t, restoredHighlights.Items, 2)
	assert.Equal(t, "Du thuyền qua đêm", restoredHighlights.Items[0].Text)
	assert.Equal(t, "Chèo kayak", restoredHighlights.Items[1].Text)
	assert.Equal(t, []int{0, 1}, itemPositions(restoredHighlights.Items))

	restoredItinerary, err := restored.GetSection("itinerary")
	require.NoError(t, err)
	require.Len(t, restoredItinerary.Items, 1)
	assert.Equal(t, day1.ID, restoredItinerary.Items[0].ID)
	assert.Equal(t, "Ngày 1: Hà Nội - Hạ Long", restoredItinerary.Items[0].Fields["day_title"])

	restoredGallery, err := restored.GetSection("gallery")
	require.NoError(t, err)
	require.Len(t, restoredGallery.Items, 1)
	assert.Equal(t, photo.ID, restoredGallery.Items[0].ID)
	require.NotNil(t, restoredGallery.Items[0].Asset)
	assert.True(t, restoredGallery.Items[0].Asset.Uploaded)
	assert.Equal(t, "media/test/photo.jpg", restoredGallery.Items[0].Asset.StoragePath)

	// Hydrate xong tài liệu ở trạng thái sạch
	assert.False(t, restored.Dirty())
}

func TestHydrateSortsAndRenumbersPositions(t *testing.T) {
	schema := newTestSchema()
	payload := Payload{
		"highlights": []interface{}{
			map[string]interface{}{"id": "b", "position": 7, "text": "thứ hai"},
			map[string]interface{}{"id": "a", "position": 2, "text": "thứ nhất"},
			map[string]interface{}{"position": 9, "text": "thiếu id"},
		},
	}

	doc := Hydrate(schema, payload)
	highlights, err := doc.GetSection("highlights")
	require.NoError(t, err)
	require.Len(t, highlights.Items, 3)

	// Sắp theo position rồi đánh số lại liên tục 0..n-1
	assert.Equal(t, "a", highlights.Items[0].ID)
	assert.Equal(t, "b", highlights.Items[1].ID)
	assert.Equal(t, []int{0, 1, 2}, itemPositions(highlights.Items))

	// Phần tử thiếu ID được cấp ID mới
	assert.NotEmpty(t, highlights.Items[2].ID)
}

func TestHydrateKeepsEmptiedTextListEmpty(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	// Người dùng xóa phần tử rỗng ban đầu, danh sách giờ trống thật sự
	require.NoError(t, highlights.RemoveAt(context.Background(), 0))
	require.Empty(t, highlights.Items())

	restored := Hydrate(newTestSchema(), session.Doc.Serialize())
	state, err := restored.GetSection("highlights")
	require.NoError(t, err)

	// Mảng rỗng đọc về giữ nguyên rỗng, không nhận lại phần tử mặc định
	assert.Empty(t, state.Items)
}

func TestItemCloneIsDeep(t *testing.T) {
	orig := &Item{
		ID:       "a",
		Position: 1,
		Text:     "ngày 1",
		Fields:   map[string]interface{}{"day_title": "Ngày 1"},
		Asset:    &AssetRef{StoragePath: "p.jpg", Uploaded: true},
	}

	clone := orig.Clone()
	clone.Fields["day_title"] = "Ngày 2"
	clone.Asset.StoragePath = "q.jpg"
	clone.Position = 9

	assert.Equal(t, "Ngày 1", orig.Fields["day_title"])
	assert.Equal(t, "p.jpg", orig.Asset.StoragePath)
	assert.Equal(t, 1, orig.Position)
}

func TestHydratePreviewNeverSerialized(t *testing.T) {
	doc := NewDocument(newTestSchema())
	require.NoError(t, doc.SetField("basic_info", "cover", &AssetRef{Preview: "local-handle"}))

	payload := doc.Serialize()
	basic, ok := payload["basic_info"].(map[string]interface{})
	require.True(t, ok)
	coverMap, ok := basic["cover"].(map[string]interface{})
	require.True(t, ok)
	_, hasPreview := coverMap["preview"]
	assert.False(t, hasPreview)

	restored := Hydrate(doc.Schema, payload)
	restoredBasic, err := restored.GetSection("basic_info")
	require.NoError(t, err)
	cover, _ := restoredBasic.Fields["cover"].(*AssetRef)
	require.NotNil(t, cover)
	assert.Empty(t, cover.Preview)
	// Không có URL nghĩa là chưa upload
	assert.False(t, cover.Uploaded)
}

func itemPositions(items []*Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Position
	}
	return out
}

func itemIDs(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
