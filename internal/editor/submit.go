package editor

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"meta_travel/internal/logger"
)

// SessionState là trạng thái của phiên soạn thảo
type SessionState string

const (
	StateEditing    SessionState = "editing"    // Đang soạn thảo
	StateValidating SessionState = "validating" // Đang kiểm tra ràng buộc
	StateSubmitting SessionState = "submitting" // Đang gửi lên server
	StateCommitted  SessionState = "committed"  // Đã xuất bản thành công
)

// Session là một phiên soạn thảo tài liệu của một người dùng.
// Phiên có đúng một writer; các thao tác được tuần tự hóa qua mutex,
// điểm treo duy nhất là các lời gọi repository/gateway.
type Session struct {
	ID     string        // Định danh phiên
	Actor  Actor         // Người đang soạn thảo
	Doc    *Document     // Tài liệu đang soạn
	Assets *AssetManager // Quản lý vòng đời file media

	repo        DocumentRepository
	collections map[string]*Collection
	state       SessionState
	mu          sync.Mutex
	log         *logrus.Entry
}

// NewSession mở phiên soạn thảo trên tài liệu mới chưa lưu
func NewSession(id string, actor Actor, schema *Schema, repo DocumentRepository, store AssetStore, policy UploadPolicy) *Session {
	doc := NewDocument(schema)
	return newSession(id, actor, doc, repo, store, policy)
}

// LoadSession mở phiên soạn thảo trên tài liệu đã có trên server
func LoadSession(ctx context.Context, id string, actor Actor, schema *Schema, repo DocumentRepository, store AssetStore, policy UploadPolicy, documentID string) (*Session, error) {
	ctx = SetActorToContext(ctx, actor)
	payload, err := repo.Get(ctx, schema.EntityType, documentID)
	if err != nil {
		return nil, err
	}
	doc := Hydrate(schema, payload)
	doc.ID = documentID
	return newSession(id, actor, doc, repo, store, policy), nil
}

func newSession(id string, actor Actor, doc *Document, repo DocumentRepository, store AssetStore, policy UploadPolicy) *Session {
	log := logger.GetAppLogger().WithFields(logrus.Fields{
		"module":      "editor",
		"session_id":  id,
		"entity_type": doc.EntityType,
	})
	return &Session{
		ID:          id,
		Actor:       actor,
		Doc:         doc,
		Assets:      NewAssetManager(doc, store, policy, log),
		repo:        repo,
		collections: make(map[string]*Collection),
		state:       StateEditing,
		log:         log,
	}
}

// State trả về trạng thái hiện tại của phiên
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Collection trả về bộ đồng bộ cho một section danh sách.
// Mỗi section có đúng một bộ đồng bộ trong suốt phiên, đảm bảo
// hàng đợi thao tác của nó không bị tách đôi.
func (s *Session) Collection(name string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collection(name)
}

func (s *Session) collection(name string) (*Collection, error) {
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := newCollection(s.Doc, name, s.repo, s.Assets, s.log)
	if err != nil {
		return nil, err
	}
	s.collections[name] = c
	return c, nil
}

// Phiên được chia sẻ giữa các request cùng sessionId. Các method dưới đây là
// điểm vào của tầng HTTP: mọi thao tác ghi lên tài liệu đi qua mutex của phiên,
// hai request đồng thời không bao giờ sửa tài liệu cùng lúc.

// SetField gán giá trị cho một field của section scalar
func (s *Session) SetField(section string, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Doc.SetField(section, field, value)
}

// AppendItem thêm phần tử vào cuối một section danh sách
func (s *Session) AppendItem(section string, item *Item) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return nil, err
	}
	return c.Append(item), nil
}

// RemoveItem xóa phần tử tại vị trí index khỏi một section danh sách
func (s *Session) RemoveItem(ctx context.Context, section string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return err
	}
	return c.RemoveAt(ctx, index)
}

// MoveItemUp di chuyển phần tử lên một bậc
func (s *Session) MoveItemUp(ctx context.Context, section string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return err
	}
	return c.MoveUp(ctx, index)
}

// MoveItemDown di chuyển phần tử xuống một bậc
func (s *Session) MoveItemDown(ctx context.Context, section string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return err
	}
	return c.MoveDown(ctx, index)
}

// Reorder sắp xếp lại một section danh sách theo thứ tự ID mới
func (s *Session) Reorder(ctx context.Context, section string, orderedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return err
	}
	return c.Reorder(ctx, orderedIDs)
}

// UpdateItemField cập nhật một field của phần tử trong danh sách
func (s *Session) UpdateItemField(ctx context.Context, section string, itemID string, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return err
	}
	return c.UpdateItemField(ctx, itemID, field, value)
}

// UploadAsset kiểm tra file theo chính sách rồi upload vào slot
func (s *Session) UploadAsset(ctx context.Context, file LocalFile, slot SlotRef, destPath string) (*AssetRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, err := s.Assets.SelectLocalFile(file, slot)
	if err != nil {
		return nil, err
	}
	return s.Assets.Upload(ctx, pending, destPath)
}

// UploadBatch tạo phần tử mới cho từng file rồi upload cả loạt vào danh sách.
// Kết quả theo đúng thứ tự file gửi lên, file lỗi không làm hỏng file khác.
func (s *Session) UploadBatch(ctx context.Context, section string, files []LocalFile) ([]UploadOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(section)
	if err != nil {
		return nil, err
	}
	slots := make([]SlotRef, len(files))
	for i := range files {
		item := c.Append(&Item{})
		slots[i] = SlotRef{Section: section, ItemID: item.ID}
	}
	return s.Assets.UploadMany(ctx, files, slots, s.Doc.Schema.StoragePrefix), nil
}

// ReleaseAsset gỡ tham chiếu khỏi slot, file mồ côi được dọn nền
func (s *Session) ReleaseAsset(ctx context.Context, slot SlotRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Assets.Release(ctx, slot)
}

// DocumentID trả về ID hiện tại của tài liệu trên server, rỗng khi chưa lưu
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Doc.ID
}

// Snapshot là ảnh chụp trạng thái phiên tại một thời điểm, dùng dựng response
type Snapshot struct {
	State      SessionState
	EntityType string
	DocumentID string
	Lifecycle  LifecycleState
	Dirty      bool
	Document   Payload
}

// Snapshot chụp trạng thái phiên dưới cùng một lần khóa,
// không đọc tài liệu đang bị request khác sửa dở
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		EntityType: s.Doc.EntityType,
		DocumentID: s.Doc.ID,
		Lifecycle:  s.Doc.Lifecycle,
		Dirty:      s.Doc.Dirty(),
		Document:   s.Doc.Serialize(),
	}
}

// SaveDraft lưu nháp tài liệu, bỏ qua mọi kiểm tra ràng buộc.
// Nháp không hoàn chỉnh vẫn lưu được.
func (s *Session) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = SetActorToContext(ctx, s.Actor)
	s.state = StateSubmitting

	previousLifecycle := s.Doc.Lifecycle
	s.Doc.Lifecycle = LifecycleDraft

	err := s.persist(ctx)
	s.state = StateEditing

	if err != nil {
		s.Doc.Lifecycle = previousLifecycle
		s.log.WithError(err).Warn("Lưu nháp thất bại")
		return err
	}

	s.Doc.markSaved()
	s.log.WithField("document_id", s.Doc.ID).Info("Đã lưu nháp")
	return nil
}

// Publish kiểm tra toàn bộ tài liệu rồi xuất bản.
// Kiểm tra gom tất cả vi phạm trước khi trả về; chỉ khi không còn vi phạm nào
// tài liệu mới được gửi lên server với lifecycle published. Lỗi server được
// trả nguyên vẹn và phiên quay về trạng thái soạn thảo để thử lại.
func (s *Session) Publish(ctx context.Context) (*ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = SetActorToContext(ctx, s.Actor)

	s.state = StateValidating
	result := s.Doc.Validate()
	if !result.Empty() {
		// Bị từ chối: quay về soạn thảo, lifecycle không đổi
		s.state = StateEditing
		s.log.WithField("violations", len(result.Errors)).Info("Xuất bản bị từ chối do vi phạm ràng buộc")
		return result, nil
	}

	s.state = StateSubmitting
	previousLifecycle := s.Doc.Lifecycle
	s.Doc.Lifecycle = LifecyclePublished

	if err := s.persist(ctx); err != nil {
		// Thất bại không phải trạng thái chết: khôi phục và cho thử lại
		s.Doc.Lifecycle = previousLifecycle
		s.state = StateEditing
		s.log.WithError(err).Warn("Xuất bản thất bại")
		return nil, err
	}

	s.Doc.markSaved()
	s.state = StateCommitted
	s.log.WithField("document_id", s.Doc.ID).Info("Đã xuất bản")
	return result, nil
}

// persist ghi tài liệu lên repository: tạo mới nếu chưa có ID, ghi đè nếu đã có
func (s *Session) persist(ctx context.Context) error {
	payload := s.Doc.Serialize()
	if s.Doc.ID == "" {
		id, err := s.repo.Create(ctx, s.Doc.EntityType, payload)
		if err != nil {
			return err
		}
		s.Doc.ID = id
		return nil
	}
	return s.repo.Replace(ctx, s.Doc.EntityType, s.Doc.ID, payload)
}

// Close dọn phiên: chờ các goroutine xóa file chạy nền kết thúc
func (s *Session) Close() {
	s.Assets.WaitDeletions()
}
