package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LocalFile là file người dùng chọn từ máy, chưa lên object store
type LocalFile struct {
	Name        string // Tên file gốc
	ContentType string // MIME type
	Data        []byte // Nội dung file
}

// UploadPolicy là chính sách kiểm tra file trước khi upload.
// Giá trị lấy từ cấu hình, không hardcode trong engine.
type UploadPolicy struct {
	AllowedTypes []string // Danh sách MIME types được phép
	MaxSizeBytes int64    // Kích thước tối đa (bytes)
}

// allows kiểm tra MIME type có trong danh sách cho phép không
func (p UploadPolicy) allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// PendingUpload là file đã qua kiểm tra, đang chờ upload.
// Previous giữ giá trị cũ của slot để khôi phục khi upload thất bại.
type PendingUpload struct {
	Handle   string    // Handle xem trước, chỉ có ý nghĩa trong phiên
	File     LocalFile // File chờ upload
	Slot     SlotRef   // Slot sẽ nhận kết quả
	Previous *AssetRef // Giá trị cũ của slot (nil nếu slot trống)
}

// UploadOutcome là kết quả upload một file trong batch, theo đúng thứ tự input
type UploadOutcome struct {
	Ref *AssetRef // Tham chiếu đã cài vào slot khi thành công
	Err error     // Lỗi của riêng file này
}

// AssetManager quản lý vòng đời file media của một tài liệu:
// kiểm tra, upload, thay thế, giải phóng và dọn file mồ côi.
type AssetManager struct {
	doc    *Document
	store  AssetStore
	policy UploadPolicy
	log    *logrus.Entry

	mu      sync.Mutex
	pending map[string]*PendingUpload

	// deleteWG theo dõi các goroutine xóa file chạy nền
	deleteWG sync.WaitGroup
}

// NewAssetManager tạo asset manager cho một tài liệu
func NewAssetManager(doc *Document, store AssetStore, policy UploadPolicy, log *logrus.Entry) *AssetManager {
	return &AssetManager{
		doc:     doc,
		store:   store,
		policy:  policy,
		log:     log.WithField("module", "assets"),
		pending: make(map[string]*PendingUpload),
	}
}

// SelectLocalFile kiểm tra file theo chính sách rồi cài tham chiếu chờ upload
// vào slot. Kiểm tra thất bại thì slot giữ nguyên, không có hiệu ứng phụ nào.
// Không có network call ở đây.
func (m *AssetManager) SelectLocalFile(file LocalFile, slot SlotRef) (*PendingUpload, error) {
	if !m.policy.allows(file.ContentType) {
		return nil, ErrAssetTypeNotAllowed
	}
	if int64(len(file.Data)) > m.policy.MaxSizeBytes {
		return nil, ErrAssetTooLarge
	}

	previous, err := m.doc.assetAt(slot)
	if err != nil {
		return nil, err
	}

	pendingRef := &AssetRef{
		Preview:  uuid.New().String(),
		Uploaded: false,
	}
	if previous != nil {
		// Giữ alt text khi thay ảnh
		pendingRef.AltText = previous.AltText
	}
	if err := m.doc.setAssetAt(slot, pendingRef); err != nil {
		return nil, err
	}

	p := &PendingUpload{
		Handle:   pendingRef.Preview,
		File:     file,
		Slot:     slot,
		Previous: previous.Clone(),
	}

	m.mu.Lock()
	m.pending[p.Handle] = p
	m.mu.Unlock()

	return p, nil
}

// Upload đẩy file chờ lên object store.
// Thành công: slot nhận {url, storagePath, uploaded}, file cũ (nếu có) được
// lên lịch xóa. Thất bại: slot khôi phục giá trị cũ, hoặc về trống nếu trước
// đó slot trống.
func (m *AssetManager) Upload(ctx context.Context, p *PendingUpload, destPath string) (*AssetRef, error) {
	obj, err := m.store.Put(ctx, destPath, PutInput{
		Name:        p.File.Name,
		ContentType: p.File.ContentType,
		Data:        p.File.Data,
	})

	m.mu.Lock()
	delete(m.pending, p.Handle)
	m.mu.Unlock()

	if err != nil {
		// Khôi phục slot về trạng thái trước khi chọn file
		if restoreErr := m.doc.setAssetAt(p.Slot, p.Previous); restoreErr != nil {
			m.log.WithError(restoreErr).Error("Không khôi phục được slot sau khi upload thất bại")
		}
		return nil, NewTransportError("upload file", err)
	}

	current, _ := m.doc.assetAt(p.Slot)
	ref := &AssetRef{
		URL:         obj.URL,
		StoragePath: obj.Path,
		Uploaded:    true,
	}
	if current != nil {
		ref.AltText = current.AltText
	}
	if err := m.doc.setAssetAt(p.Slot, ref); err != nil {
		// Slot biến mất trong lúc upload: file vừa lưu thành mồ côi, dọn luôn
		m.scheduleDelete(ref)
		return nil, err
	}

	// File cũ chỉ được xóa sau khi slot đã cập nhật xong
	m.scheduleDelete(p.Previous)

	return ref, nil
}

// UploadMany upload nhiều file vào các slot tương ứng, giữ nguyên thứ tự.
// File không qua kiểm tra nhận lỗi ngay tại index của nó và không tham gia
// batch; các file hợp lệ vẫn được upload bình thường.
func (m *AssetManager) UploadMany(ctx context.Context, files []LocalFile, slots []SlotRef, prefix string) []UploadOutcome {
	outcomes := make([]UploadOutcome, len(files))

	if len(slots) != len(files) {
		err := NewSchemaError("số slot (%d) không khớp số file (%d)", len(slots), len(files))
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}

	// Kiểm tra đồng bộ trước, lọc các file hợp lệ vào batch
	inputs := make([]PutInput, 0, len(files))
	batchIndex := make([]int, 0, len(files))
	for i, f := range files {
		if !m.policy.allows(f.ContentType) {
			outcomes[i].Err = ErrAssetTypeNotAllowed
			continue
		}
		if int64(len(f.Data)) > m.policy.MaxSizeBytes {
			outcomes[i].Err = ErrAssetTooLarge
			continue
		}
		inputs = append(inputs, PutInput{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
		batchIndex = append(batchIndex, i)
	}

	if len(inputs) == 0 {
		return outcomes
	}

	results := m.store.PutMany(ctx, prefix, inputs)
	for j, res := range results {
		i := batchIndex[j]
		if res.Err != nil {
			outcomes[i].Err = NewTransportError("upload file", res.Err)
			continue
		}

		ref := &AssetRef{
			URL:         res.Object.URL,
			StoragePath: res.Object.Path,
			Uploaded:    true,
		}
		previous, err := m.doc.assetAt(slots[i])
		if err != nil {
			m.scheduleDelete(ref)
			outcomes[i].Err = err
			continue
		}
		if previous != nil {
			ref.AltText = previous.AltText
		}
		if err := m.doc.setAssetAt(slots[i], ref); err != nil {
			m.scheduleDelete(ref)
			outcomes[i].Err = err
			continue
		}
		m.scheduleDelete(previous)
		outcomes[i].Ref = ref
	}

	return outcomes
}

// Supersede thay tham chiếu trong slot bằng một tham chiếu đã upload sẵn
// (ví dụ chọn lại ảnh từ thư viện). Slot cập nhật đồng bộ; file cũ được
// lên lịch xóa sau đó.
func (m *AssetManager) Supersede(ctx context.Context, slot SlotRef, newRef *AssetRef) error {
	old, err := m.doc.assetAt(slot)
	if err != nil {
		return err
	}
	if err := m.doc.setAssetAt(slot, newRef); err != nil {
		return err
	}
	m.scheduleDelete(old)
	return nil
}

// Release gỡ tham chiếu khỏi slot và lên lịch xóa file nếu cần
func (m *AssetManager) Release(ctx context.Context, slot SlotRef) error {
	ref, err := m.doc.assetAt(slot)
	if err != nil {
		return err
	}
	if err := m.doc.setAssetAt(slot, nil); err != nil {
		return err
	}
	m.scheduleDelete(ref)
	return nil
}

// ReleaseDetached xử lý tham chiếu đã rời khỏi tài liệu
// (ví dụ phần tử gallery vừa bị xóa)
func (m *AssetManager) ReleaseDetached(ctx context.Context, ref *AssetRef) {
	m.scheduleDelete(ref)
}

// scheduleDelete lên lịch xóa file trên object store.
// Quyết định xóa hay không được đưa ra đồng bộ, dựa trên trạng thái tài liệu
// sau khi slot đã cập nhật: nếu còn slot khác giữ cùng storagePath thì file
// vẫn đang được dùng, không xóa. Bản thân việc xóa chạy nền; lỗi xóa chỉ log,
// không bao giờ nổi lên người dùng.
func (m *AssetManager) scheduleDelete(ref *AssetRef) {
	if ref == nil || !ref.Uploaded || ref.StoragePath == "" {
		return
	}
	if m.doc.ReferencesStoragePath(ref.StoragePath) {
		m.log.WithField("storage_path", ref.StoragePath).Debug("File còn được tham chiếu, bỏ qua xóa")
		return
	}

	path := ref.StoragePath
	m.deleteWG.Add(1)
	go func() {
		defer m.deleteWG.Done()
		if err := m.store.Delete(context.Background(), path); err != nil {
			m.log.WithError(err).WithField("storage_path", path).Warn("Xóa file mồ côi thất bại")
		}
	}()
}

// WaitDeletions chờ các goroutine xóa file chạy xong (dùng khi shutdown và test)
func (m *AssetManager) WaitDeletions() {
	m.deleteWG.Wait()
}
