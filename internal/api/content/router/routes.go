// Package router đăng ký các route thuộc domain soạn thảo nội dung.
package router

import (
	"github.com/gofiber/fiber/v3"

	basehdl "meta_travel/internal/api/base/handler"
	contenthdl "meta_travel/internal/api/content/handler"
	apirouter "meta_travel/internal/api/router"
)

// Register đăng ký tất cả route soạn thảo nội dung lên v1.
// Xác thực do gateway phía trước đảm nhiệm, các route ở đây không gắn middleware.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	editorHandler := contenthdl.NewEditorHandler()
	systemHandler := basehdl.NewSystemHandler()

	// GET /system/health — kiểm tra tình trạng hệ thống
	apirouter.RegisterRouteWithMiddleware(v1, "/system", "GET", "/health", nil, systemHandler.HandleHealth)

	// POST /editor/sessions — mở phiên soạn thảo (tạo mới hoặc load tài liệu đã có)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions", nil, editorHandler.OpenSession)
	// GET /editor/sessions/:sessionId — trạng thái phiên
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "GET", "/sessions/:sessionId", nil, editorHandler.GetSession)
	// DELETE /editor/sessions/:sessionId — đóng phiên
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "DELETE", "/sessions/:sessionId", nil, editorHandler.CloseSession)

	// PUT /editor/sessions/:sessionId/field — cập nhật field của section scalar
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "PUT", "/sessions/:sessionId/field", nil, editorHandler.SetField)

	// Thao tác trên section danh sách
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/items", nil, editorHandler.AppendItem)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/items/remove", nil, editorHandler.RemoveItem)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/items/move", nil, editorHandler.MoveItem)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/items/reorder", nil, editorHandler.Reorder)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "PUT", "/sessions/:sessionId/items/field", nil, editorHandler.UpdateItemField)

	// Quản lý file đính kèm
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/assets", nil, editorHandler.UploadAsset)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/assets/batch", nil, editorHandler.UploadAssetBatch)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/assets/release", nil, editorHandler.ReleaseAsset)

	// Lưu nháp và xuất bản
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/draft", nil, editorHandler.SaveDraft)
	apirouter.RegisterRouteWithMiddleware(v1, "/editor", "POST", "/sessions/:sessionId/publish", nil, editorHandler.Publish)

	return nil
}
