package editor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meta_travel/internal/common"
)

func smallJPEG(name string) LocalFile {
	return LocalFile{Name: name, ContentType: "image/jpeg", Data: []byte("jpeg-data")}
}

func coverSlot() SlotRef {
	return SlotRef{Section: "basic_info", Field: "cover"}
}

func TestSelectLocalFileRejectsDisallowedType(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())

	_, err := session.Assets.SelectLocalFile(LocalFile{
		Name:        "doc.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	}, coverSlot())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssetTypeNotAllowed)
	assert.True(t, common.IsCode(err, common.ErrCodeAssetType))

	// Kiểm tra thất bại không có hiệu ứng phụ: slot vẫn trống
	ref, refErr := session.Doc.assetAt(coverSlot())
	require.NoError(t, refErr)
	assert.Nil(t, ref)
	assert.False(t, session.Doc.Dirty())
}

func TestSelectLocalFileRejectsOversizedFile(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())

	_, err := session.Assets.SelectLocalFile(LocalFile{
		Name:        "big.jpg",
		ContentType: "image/jpeg",
		Data:        bytes.Repeat([]byte("x"), 2048), // policy cho phép tối đa 1024
	}, coverSlot())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssetTooLarge)
	assert.True(t, common.IsCode(err, common.ErrCodeAssetTooLarge))
}

func TestSelectLocalFileInstallsPendingRef(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())

	// Slot đang giữ ảnh cũ với alt text
	require.NoError(t, session.Doc.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/old.jpg",
		StoragePath: "old.jpg",
		AltText:     "Ảnh cũ",
		Uploaded:    true,
	}))

	pending, err := session.Assets.SelectLocalFile(smallJPEG("new.jpg"), coverSlot())
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.NotEmpty(t, pending.Handle)

	// Slot giờ giữ tham chiếu chờ upload với handle xem trước, giữ alt text cũ
	ref, refErr := session.Doc.assetAt(coverSlot())
	require.NoError(t, refErr)
	require.NotNil(t, ref)
	assert.False(t, ref.Uploaded)
	assert.Equal(t, pending.Handle, ref.Preview)
	assert.Equal(t, "Ảnh cũ", ref.AltText)

	// Previous giữ bản sao để khôi phục
	require.NotNil(t, pending.Previous)
	assert.Equal(t, "old.jpg", pending.Previous.StoragePath)
}

func TestUploadSuccessInstallsRefAndDeletesPrevious(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	require.NoError(t, session.Doc.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/old.jpg",
		StoragePath: "old.jpg",
		AltText:     "Ảnh bìa",
		Uploaded:    true,
	}))

	pending, err := session.Assets.SelectLocalFile(smallJPEG("new.jpg"), coverSlot())
	require.NoError(t, err)

	ref, err := session.Assets.Upload(ctx, pending, "media/test/new.jpg")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.True(t, ref.Uploaded)
	assert.Equal(t, "media/test/new.jpg", ref.StoragePath)
	assert.Equal(t, "https://cdn.test/media/test/new.jpg", ref.URL)
	assert.Equal(t, "Ảnh bìa", ref.AltText)

	// Slot đã nhận tham chiếu mới
	current, refErr := session.Doc.assetAt(coverSlot())
	require.NoError(t, refErr)
	assert.Equal(t, ref, current)

	// File cũ được xóa nền sau khi slot cập nhật xong
	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "old.jpg")
}

func TestUploadFailureRestoresPreviousRef(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	previous := &AssetRef{
		URL:         "https://cdn.test/old.jpg",
		StoragePath: "old.jpg",
		AltText:     "Ảnh cũ",
		Uploaded:    true,
	}
	require.NoError(t, session.Doc.SetField("basic_info", "cover", previous))

	pending, err := session.Assets.SelectLocalFile(smallJPEG("new.jpg"), coverSlot())
	require.NoError(t, err)

	store.failPut = true
	ref, err := session.Assets.Upload(ctx, pending, "media/test/new.jpg")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Nil(t, ref)

	// Slot khôi phục về ảnh cũ, không mất dữ liệu
	current, refErr := session.Doc.assetAt(coverSlot())
	require.NoError(t, refErr)
	require.NotNil(t, current)
	assert.Equal(t, "old.jpg", current.StoragePath)
	assert.True(t, current.Uploaded)

	// Ảnh cũ không bị xóa
	session.Assets.WaitDeletions()
	assert.NotContains(t, store.deletedPaths(), "old.jpg")
}

func TestUploadFailureOnEmptySlotRestoresEmpty(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)

	pending, err := session.Assets.SelectLocalFile(smallJPEG("new.jpg"), coverSlot())
	require.NoError(t, err)

	store.failPut = true
	_, err = session.Assets.Upload(context.Background(), pending, "media/test/new.jpg")
	require.Error(t, err)

	current, refErr := session.Doc.assetAt(coverSlot())
	require.NoError(t, refErr)
	assert.Nil(t, current)
}

func TestReleaseClearsSlotAndDeletesFile(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)

	require.NoError(t, session.Doc.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/cover.jpg",
		StoragePath: "cover.jpg",
		Uploaded:    true,
	}))

	require.NoError(t, session.Assets.Release(context.Background(), coverSlot()))

	current, err := session.Doc.assetAt(coverSlot())
	require.NoError(t, err)
	assert.Nil(t, current)

	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "cover.jpg")
}

func TestReleaseSkipsDeleteWhenPathStillReferenced(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	shared := func() *AssetRef {
		return &AssetRef{
			URL:         "https://cdn.test/shared.jpg",
			StoragePath: "shared.jpg",
			Uploaded:    true,
		}
	}

	// Hai slot cùng trỏ đến một file trên object store
	require.NoError(t, session.Doc.SetField("basic_info", "cover", shared()))
	itinerary, err := session.Collection("itinerary")
	require.NoError(t, err)
	day := itinerary.Append(nil)
	require.NoError(t, session.Doc.setAssetAt(SlotRef{Section: "itinerary", ItemID: day.ID, Field: "image"}, shared()))

	// Gỡ slot thứ nhất: file còn được slot kia tham chiếu, không xóa
	require.NoError(t, session.Assets.Release(ctx, coverSlot()))
	session.Assets.WaitDeletions()
	assert.NotContains(t, store.deletedPaths(), "shared.jpg")

	// Gỡ slot cuối cùng: file mồ côi, được xóa
	require.NoError(t, session.Assets.Release(ctx, SlotRef{Section: "itinerary", ItemID: day.ID, Field: "image"}))
	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "shared.jpg")
}

func TestRemoveItemReleasesItsAssets(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	gallery.Append(&Item{Asset: &AssetRef{
		URL:         "https://cdn.test/photo.jpg",
		StoragePath: "photo.jpg",
		Uploaded:    true,
	}})

	require.NoError(t, gallery.RemoveAt(ctx, 0))
	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "photo.jpg")
}

func TestUploadManyPreservesOrderAndIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)

	files := []LocalFile{
		smallJPEG("a.jpg"),
		{Name: "b.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte("x"), 2048)}, // quá lớn
		smallJPEG("c.jpg"),
	}
	slots := make([]SlotRef, len(files))
	items := make([]*Item, len(files))
	for i := range files {
		items[i] = gallery.Append(&Item{})
		slots[i] = SlotRef{Section: "gallery", ItemID: items[i].ID}
	}

	outcomes := session.Assets.UploadMany(ctx, files, slots, "media/test")
	require.Len(t, outcomes, 3)

	// File lỗi nhận lỗi tại đúng index của nó
	require.Error(t, outcomes[1].Err)
	assert.ErrorIs(t, outcomes[1].Err, ErrAssetTooLarge)
	assert.Nil(t, outcomes[1].Ref)

	// Các file hợp lệ vẫn được upload, cài vào đúng slot
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[2].Err)
	assert.Equal(t, "media/test/a.jpg", outcomes[0].Ref.StoragePath)
	assert.Equal(t, "media/test/c.jpg", outcomes[2].Ref.StoragePath)
	assert.Equal(t, outcomes[0].Ref, items[0].Asset)
	assert.Equal(t, outcomes[2].Ref, items[2].Asset)
	assert.Nil(t, items[1].Asset)

	// Thứ tự danh sách không đổi
	assert.Equal(t, itemIDs(items), itemIDs(gallery.Items()))
}

func TestUploadManyTransportFailurePerFile(t *testing.T) {
	store := newFakeStore()
	store.failPutNames = map[string]bool{"b.jpg": true}
	session := newTestSession(newFakeRepo(), store)

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)

	files := []LocalFile{smallJPEG("a.jpg"), smallJPEG("b.jpg")}
	slots := make([]SlotRef, len(files))
	for i := range files {
		item := gallery.Append(&Item{})
		slots[i] = SlotRef{Section: "gallery", ItemID: item.ID}
	}

	outcomes := session.Assets.UploadMany(context.Background(), files, slots, "media/test")
	require.NoError(t, outcomes[0].Err)
	require.Error(t, outcomes[1].Err)
	assert.True(t, IsTransportError(outcomes[1].Err))
}

func TestUploadManyRejectsMismatchedSlotCount(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)

	files := []LocalFile{smallJPEG("a.jpg"), smallJPEG("b.jpg")}
	slots := []SlotRef{coverSlot()}

	outcomes := session.Assets.UploadMany(context.Background(), files, slots, "media/test")
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		require.Error(t, outcome.Err)
		assert.True(t, IsSchemaError(outcome.Err))
		assert.Nil(t, outcome.Ref)
	}

	// Không có gì được đẩy lên object store
	assert.Empty(t, store.objects)
}

func TestUploadCleansStoredFileWhenSlotVanished(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	item := gallery.Append(&Item{})
	slot := SlotRef{Section: "gallery", ItemID: item.ID}

	pending, err := session.Assets.SelectLocalFile(smallJPEG("new.jpg"), slot)
	require.NoError(t, err)

	// Phần tử bị xóa trong lúc file còn đang chờ upload
	require.NoError(t, gallery.RemoveAt(ctx, 0))

	ref, err := session.Assets.Upload(ctx, pending, "media/test/new.jpg")
	require.Error(t, err)
	assert.Nil(t, ref)

	// File vừa lưu không còn chỗ trong tài liệu, phải được dọn
	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "media/test/new.jpg")
}

func TestUploadManyCleansStoredFileWhenSlotVanished(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)
	ctx := context.Background()

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	item := gallery.Append(&Item{})
	slots := []SlotRef{{Section: "gallery", ItemID: item.ID}}
	files := []LocalFile{smallJPEG("a.jpg")}

	require.NoError(t, gallery.RemoveAt(ctx, 0))

	outcomes := session.Assets.UploadMany(ctx, files, slots, "media/test")
	require.Len(t, outcomes, 1)
	require.Error(t, outcomes[0].Err)

	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "media/test/a.jpg")
}

func TestSupersedeReplacesRefAndCleansOldFile(t *testing.T) {
	store := newFakeStore()
	session := newTestSession(newFakeRepo(), store)

	require.NoError(t, session.Doc.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/old.jpg",
		StoragePath: "old.jpg",
		Uploaded:    true,
	}))

	newRef := &AssetRef{
		URL:         "https://cdn.test/lib.jpg",
		StoragePath: "lib.jpg",
		Uploaded:    true,
	}
	require.NoError(t, session.Assets.Supersede(context.Background(), coverSlot(), newRef))

	current, err := session.Doc.assetAt(coverSlot())
	require.NoError(t, err)
	assert.Equal(t, newRef, current)

	session.Assets.WaitDeletions()
	assert.Contains(t, store.deletedPaths(), "old.jpg")
}
