package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// savedSession trả về session trên tài liệu đã có trên server để các thao tác
// danh sách có round trip thật
func savedSession(t *testing.T, repo *fakeRepo, store *fakeStore) *Session {
	t.Helper()
	session := newTestSession(repo, store)
	require.NoError(t, session.SaveDraft(context.Background()))
	require.NotEmpty(t, session.Doc.ID)
	return session
}

func TestCollectionRequiresListSection(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())

	_, err := session.Collection("basic_info")
	assert.True(t, IsSchemaError(err))

	_, err = session.Collection("khong_ton_tai")
	assert.True(t, IsSchemaError(err))
}

func TestAppendAndRemoveKeepPositionsContiguous(t *testing.T) {
	session := savedSession(t, newFakeRepo(), newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	highlights.Append(&Item{Text: "một"})
	highlights.Append(&Item{Text: "hai"})
	highlights.Append(&Item{Text: "ba"})
	require.Len(t, highlights.Items(), 4) // phần tử rỗng ban đầu + 3
	assert.Equal(t, []int{0, 1, 2, 3}, itemPositions(highlights.Items()))

	require.NoError(t, highlights.RemoveAt(context.Background(), 1))
	require.Len(t, highlights.Items(), 3)
	assert.Equal(t, []int{0, 1, 2}, itemPositions(highlights.Items()))
	assert.Equal(t, "hai", highlights.Items()[1].Text)

	// Index ngoài phạm vi là lỗi lập trình
	assert.True(t, IsSchemaError(highlights.RemoveAt(context.Background(), 99)))
	assert.True(t, IsSchemaError(highlights.RemoveAt(context.Background(), -1)))
}

func TestMoveUpDown(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	require.NoError(t, highlights.UpdateItemField(context.Background(), highlights.Items()[0].ID, "text", "một"))
	highlights.Append(&Item{Text: "hai"})
	highlights.Append(&Item{Text: "ba"})
	callsBefore := repo.reorderCalls

	// Di chuyển ở biên là no-op, không gọi server
	require.NoError(t, highlights.MoveUp(context.Background(), 0))
	require.NoError(t, highlights.MoveDown(context.Background(), 2))
	assert.Equal(t, callsBefore, repo.reorderCalls)
	assert.Equal(t, "một", highlights.Items()[0].Text)
	assert.Equal(t, "ba", highlights.Items()[2].Text)

	// Di chuyển giữa danh sách đổi chỗ hai phần tử kề nhau
	require.NoError(t, highlights.MoveUp(context.Background(), 2))
	assert.Equal(t, "một", highlights.Items()[0].Text)
	assert.Equal(t, "ba", highlights.Items()[1].Text)
	assert.Equal(t, "hai", highlights.Items()[2].Text)
	assert.Equal(t, []int{0, 1, 2}, itemPositions(highlights.Items()))
	assert.Equal(t, callsBefore+1, repo.reorderCalls)

	require.NoError(t, highlights.MoveDown(context.Background(), 0))
	assert.Equal(t, "ba", highlights.Items()[0].Text)
	assert.Equal(t, "một", highlights.Items()[1].Text)
}

func TestReorderValidatesIDSet(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	highlights.Append(&Item{Text: "hai"})

	ids := itemIDs(highlights.Items())

	// Thiếu phần tử
	assert.True(t, IsSchemaError(highlights.Reorder(context.Background(), ids[:1])))

	// ID lạ
	bad := append([]string{}, ids...)
	bad[0] = "khong-ton-tai"
	assert.True(t, IsSchemaError(highlights.Reorder(context.Background(), bad)))

	// Lỗi kiểm tra không đụng đến server
	assert.Equal(t, 0, repo.reorderCalls)
}

func TestReorderRollsBackOnTransportFailure(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	require.NoError(t, highlights.UpdateItemField(context.Background(), highlights.Items()[0].ID, "text", "A"))
	b := highlights.Append(&Item{Text: "B"})
	c := highlights.Append(&Item{Text: "C"})
	a := highlights.Items()[0]

	repo.failReorder = true
	err = highlights.Reorder(context.Background(), []string{c.ID, a.ID, b.ID})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	// Khôi phục đúng thứ tự server đã xác nhận gần nhất, position liên tục
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, itemIDs(highlights.Items()))
	assert.Equal(t, []int{0, 1, 2}, itemPositions(highlights.Items()))
	assert.False(t, highlights.InFlight())
}

func TestReorderAppliesAuthoritativePositions(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	a := highlights.Items()[0]
	b := highlights.Append(&Item{Text: "B"})
	c := highlights.Append(&Item{Text: "C"})

	// Server quyết định thứ tự khác với thứ tự client gửi lên
	repo.reorderPositions = map[string]int{b.ID: 0, c.ID: 1, a.ID: 2}
	require.NoError(t, highlights.Reorder(context.Background(), []string{c.ID, a.ID, b.ID}))

	assert.Equal(t, []string{b.ID, c.ID, a.ID}, itemIDs(highlights.Items()))
	assert.Equal(t, []int{0, 1, 2}, itemPositions(highlights.Items()))
}

func TestReorderOnUnsavedDocumentIsLocalOnly(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)

	a := highlights.Items()[0]
	b := highlights.Append(&Item{Text: "B"})

	require.NoError(t, highlights.Reorder(context.Background(), []string{b.ID, a.ID}))
	assert.Equal(t, []string{b.ID, a.ID}, itemIDs(highlights.Items()))
	assert.Equal(t, 0, repo.reorderCalls)
}

func TestUpdateItemFieldByKind(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	ctx := context.Background()

	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	textItem := highlights.Items()[0]
	require.NoError(t, highlights.UpdateItemField(ctx, textItem.ID, "text", "Ngắm hoàng hôn"))
	assert.Equal(t, "Ngắm hoàng hôn", textItem.Text)

	// Phần tử text chỉ có field "text"
	assert.True(t, IsSchemaError(highlights.UpdateItemField(ctx, textItem.ID, "title", "x")))

	itinerary, err := session.Collection("itinerary")
	require.NoError(t, err)
	day := itinerary.Append(nil)
	require.NoError(t, itinerary.UpdateItemField(ctx, day.ID, "day_title", "Ngày 1"))
	assert.Equal(t, "Ngày 1", day.Fields["day_title"])
	assert.True(t, IsSchemaError(itinerary.UpdateItemField(ctx, day.ID, "khong_ton_tai", "x")))
	assert.True(t, IsSchemaError(itinerary.UpdateItemField(ctx, day.ID, "day_title", 42)))

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	photo := gallery.Append(&Item{Asset: &AssetRef{Uploaded: true, URL: "u", StoragePath: "p"}})
	require.NoError(t, gallery.UpdateItemField(ctx, photo.ID, "alt", "Bãi biển"))
	assert.Equal(t, "Bãi biển", photo.Asset.AltText)
	assert.True(t, IsSchemaError(gallery.UpdateItemField(ctx, photo.ID, "text", "x")))

	// Phần tử không tồn tại
	assert.True(t, IsSchemaError(highlights.UpdateItemField(ctx, "khong-ton-tai", "text", "x")))
}

func TestUpdateItemFieldKeepsValueOnTransportFailure(t *testing.T) {
	repo := newFakeRepo()
	session := savedSession(t, repo, newFakeStore())
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	item := highlights.Items()[0]

	repo.failReplace = true
	err = highlights.UpdateItemField(context.Background(), item.ID, "text", "giá trị mới")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	// Khác reorder: giá trị mới được giữ để người dùng thử lưu lại
	assert.Equal(t, "giá trị mới", item.Text)
	assert.True(t, session.Doc.Dirty())
}
