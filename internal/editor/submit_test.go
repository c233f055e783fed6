package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillValidDocument điền đủ nội dung để tài liệu qua được mọi ràng buộc
func fillValidDocument(t *testing.T, session *Session) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, session.SetField("basic_info", "title", "Tour Sapa 2N1Đ"))
	require.NoError(t, session.SetField("basic_info", "price", 2500000.0))
	require.NoError(t, session.SetField("basic_info", "rating", 4.8))
	require.NoError(t, session.SetField("basic_info", "cover", &AssetRef{
		URL:         "https://cdn.test/cover.jpg",
		StoragePath: "cover.jpg",
		Uploaded:    true,
	}))

	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	require.NoError(t, session.UpdateItemField(ctx, "highlights", highlights.Items()[0].ID, "text", "Săn mây trên đỉnh Fansipan"))

	_, err = session.AppendItem("gallery", &Item{Asset: &AssetRef{
		URL:         "https://cdn.test/photo.jpg",
		StoragePath: "photo.jpg",
		Uploaded:    true,
	}})
	require.NoError(t, err)
}

func TestSaveDraftBypassesValidation(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())

	// Tài liệu trống vi phạm nhiều ràng buộc nhưng lưu nháp vẫn thành công
	require.False(t, session.Doc.Validate().Empty())

	require.NoError(t, session.SaveDraft(context.Background()))

	assert.NotEmpty(t, session.Doc.ID)
	assert.Equal(t, LifecycleDraft, session.Doc.Lifecycle)
	assert.Equal(t, StateEditing, session.State())
	assert.False(t, session.Doc.Dirty())
	assert.Equal(t, 1, repo.createCalls)

	// Payload trên server mang lifecycle draft
	saved := repo.docs[session.Doc.ID]
	assert.Equal(t, string(LifecycleDraft), saved["lifecycleState"])
}

func TestSaveDraftFailureRestoresLifecycle(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())

	repo.failCreate = true
	err := session.SaveDraft(context.Background())
	require.Error(t, err)

	assert.Empty(t, session.Doc.ID)
	assert.Equal(t, LifecycleUnsaved, session.Doc.Lifecycle)
	assert.Equal(t, StateEditing, session.State())
}

func TestPublishRejectedAggregatesAllViolations(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())

	result, err := session.Publish(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.Empty())

	// Gom mọi vi phạm một lần: title, cover, gallery trống, highlights rỗng
	sections := make(map[string]bool)
	fields := make(map[string]bool)
	for _, issue := range result.Errors {
		sections[issue.Section] = true
		fields[issue.Field] = true
	}
	assert.True(t, sections["basic_info"])
	assert.True(t, sections["gallery"])
	assert.True(t, sections["highlights"])
	assert.True(t, fields["title"])
	assert.True(t, fields["cover"])
	assert.GreaterOrEqual(t, len(result.Errors), 4)

	// Bị từ chối: không đụng đến server, phiên quay về soạn thảo
	assert.Equal(t, 0, repo.createCalls)
	assert.Equal(t, 0, repo.replaceCalls)
	assert.Equal(t, StateEditing, session.State())
	assert.Equal(t, LifecycleUnsaved, session.Doc.Lifecycle)
}

func TestPublishBlankTextItemsDoNotCount(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())
	fillValidDocument(t, session)

	// Thêm toàn phần tử rỗng: không được tính vào số phần tử tối thiểu
	highlights, err := session.Collection("highlights")
	require.NoError(t, err)
	require.NoError(t, highlights.UpdateItemField(context.Background(), highlights.Items()[0].ID, "text", "   "))
	highlights.Append(&Item{Text: ""})

	result := session.Doc.Validate()
	found := false
	for _, issue := range result.Errors {
		if issue.Section == "highlights" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPublishSuccess(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())
	fillValidDocument(t, session)

	result, err := session.Publish(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Empty())

	assert.Equal(t, StateCommitted, session.State())
	assert.Equal(t, LifecyclePublished, session.Doc.Lifecycle)
	assert.NotEmpty(t, session.Doc.ID)
	assert.False(t, session.Doc.Dirty())

	saved := repo.docs[session.Doc.ID]
	assert.Equal(t, string(LifecyclePublished), saved["lifecycleState"])
}

func TestPublishTransportFailureAllowsRetry(t *testing.T) {
	repo := newFakeRepo()
	session := newTestSession(repo, newFakeStore())
	fillValidDocument(t, session)

	// Lưu nháp trước để tài liệu có ID và lifecycle draft
	require.NoError(t, session.SaveDraft(context.Background()))

	repo.failReplace = true
	result, err := session.Publish(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	// Thất bại không phải trạng thái chết: lifecycle khôi phục, phiên cho thử lại
	assert.Equal(t, LifecycleDraft, session.Doc.Lifecycle)
	assert.Equal(t, StateEditing, session.State())

	repo.failReplace = false
	result, err = session.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, StateCommitted, session.State())
	assert.Equal(t, LifecyclePublished, session.Doc.Lifecycle)
}

func TestLoadSessionHydratesExistingDocument(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()

	// Tạo tài liệu qua một phiên rồi mở lại bằng phiên khác
	first := newTestSession(repo, store)
	fillValidDocument(t, first)
	require.NoError(t, first.SaveDraft(context.Background()))
	docID := first.Doc.ID

	second, err := LoadSession(context.Background(), "session-2", Actor{UserID: "user-2"}, newTestSchema(), repo, store, testPolicy(), docID)
	require.NoError(t, err)

	assert.Equal(t, docID, second.Doc.ID)
	assert.Equal(t, LifecycleDraft, second.Doc.Lifecycle)
	assert.False(t, second.Doc.Dirty())

	basic, err := second.Doc.GetSection("basic_info")
	require.NoError(t, err)
	assert.Equal(t, "Tour Sapa 2N1Đ", basic.Fields["title"])

	gallery, err := second.Doc.GetSection("gallery")
	require.NoError(t, err)
	require.Len(t, gallery.Items, 1)
	assert.True(t, gallery.Items[0].Asset.Uploaded)
}

func TestConcurrentSessionEditsAreSerialized(t *testing.T) {
	session := newTestSession(newFakeRepo(), newFakeStore())

	// Hai request cùng sessionId ghi lên tài liệu đồng thời: một bên sửa field
	// scalar, một bên thêm phần tử gallery. Mọi thao tác đi qua mutex của phiên
	// nên không được ghi đè lên nhau.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			assert.NoError(t, session.SetField("basic_info", "title", fmt.Sprintf("tiêu đề %d", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, err := session.AppendItem("gallery", &Item{})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	snap := session.Snapshot()
	basic, ok := snap.Document["basic_info"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, basic["title"])

	gallery, err := session.Collection("gallery")
	require.NoError(t, err)
	require.Len(t, gallery.Items(), 500)
	positions := itemPositions(gallery.Items())
	for i, pos := range positions {
		assert.Equal(t, i, pos)
	}
}

func TestValidateReportsOneIssuePerMissingRequiredField(t *testing.T) {
	// Ba field bắt buộc bỏ trống trên hai section: đúng ba vi phạm, không hơn
	schema := &Schema{
		EntityType: "tour_package",
		Sections: map[string]*SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]FieldConstraint{
					"title":   {Kind: FieldString, Required: true},
					"summary": {Kind: FieldString, Required: true},
					"note":    {Kind: FieldString},
				},
			},
			"seo": {
				Name: "seo",
				Fields: map[string]FieldConstraint{
					"meta_title": {Kind: FieldString, Required: true},
				},
			},
		},
	}

	result := NewDocument(schema).Validate()
	require.Len(t, result.Errors, 3)

	bySection := make(map[string]int)
	fields := make(map[string]bool)
	for _, issue := range result.Errors {
		bySection[issue.Section]++
		fields[issue.Field] = true
	}
	assert.Equal(t, 2, bySection["basic_info"])
	assert.Equal(t, 1, bySection["seo"])
	assert.True(t, fields["title"])
	assert.True(t, fields["summary"])
	assert.True(t, fields["meta_title"])
}

func TestLoadSessionMissingDocument(t *testing.T) {
	_, err := LoadSession(context.Background(), "session-x", Actor{UserID: "u"}, newTestSchema(), newFakeRepo(), newFakeStore(), testPolicy(), "khong-ton-tai")
	assert.Error(t, err)
}
