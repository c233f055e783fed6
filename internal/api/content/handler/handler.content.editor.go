// Package contenthdl xử lý các request của API soạn thảo nội dung.
// Handler chỉ parse/validate request và gọi engine; không chứa nghiệp vụ.
package contenthdl

import (
	"encoding/base64"
	"fmt"

	"github.com/gofiber/fiber/v3"

	basehdl "meta_travel/internal/api/base/handler"
	contentdto "meta_travel/internal/api/content/dto"
	contentsvc "meta_travel/internal/api/content/service"
	"meta_travel/internal/common"
	"meta_travel/internal/editor"
	"meta_travel/internal/logger"
	"meta_travel/internal/storage"
)

// EditorHandler xử lý các request liên quan đến phiên soạn thảo nội dung
type EditorHandler struct {
	basehdl.BaseHandler
	SessionService *contentsvc.SessionService
}

// NewEditorHandler tạo mới EditorHandler
func NewEditorHandler() *EditorHandler {
	return &EditorHandler{
		SessionService: contentsvc.NewSessionService(),
	}
}

// actorFromRequest lấy danh tính người soạn thảo từ headers.
// Xác thực nằm ngoài phạm vi service này; gateway phía trước đã xác thực
// và gắn danh tính vào headers.
func actorFromRequest(c fiber.Ctx) (editor.Actor, error) {
	actor := editor.Actor{
		UserID:         c.Get("X-User-ID"),
		OrganizationID: c.Get("X-Organization-ID"),
	}
	if actor.UserID == "" {
		return actor, common.NewError(
			common.ErrCodeValidationInput,
			"Thiếu header X-User-ID",
			common.StatusBadRequest,
			nil,
		)
	}
	return actor, nil
}

// sessionView dựng response mô tả trạng thái phiên cho client
func sessionView(s *editor.Session) fiber.Map {
	snap := s.Snapshot()
	return fiber.Map{
		"sessionId":      s.ID,
		"state":          snap.State,
		"entityType":     snap.EntityType,
		"documentId":     snap.DocumentID,
		"lifecycleState": snap.Lifecycle,
		"dirty":          snap.Dirty,
		"document":       snap.Document,
	}
}

// session lấy phiên từ path param
func (h *EditorHandler) session(c fiber.Ctx) (*editor.Session, error) {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return nil, common.ErrRequiredField
	}
	return h.SessionService.Get(sessionID)
}

// OpenSession mở phiên soạn thảo mới.
// Body có documentId thì load tài liệu đã có, không có thì tạo tài liệu mới.
func (h *EditorHandler) OpenSession(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.OpenSessionInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		actor, err := actorFromRequest(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		var session *editor.Session
		if input.DocumentID != "" {
			session, err = h.SessionService.Load(c.Context(), actor, input.EntityType, input.DocumentID)
		} else {
			session, err = h.SessionService.Open(actor, input.EntityType)
		}
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogEditor("open", input.EntityType, input.DocumentID, c, nil)
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// GetSession trả về trạng thái hiện tại của phiên
func (h *EditorHandler) GetSession(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// CloseSession đóng phiên soạn thảo
func (h *EditorHandler) CloseSession(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		sessionID := c.Params("sessionId")
		if err := h.SessionService.Close(sessionID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, fiber.Map{"sessionId": sessionID}, nil)
		return nil
	})
}

// SetField cập nhật một field của section scalar
func (h *EditorHandler) SetField(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.SetFieldInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := session.SetField(input.Section, input.Field, input.Value); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// AppendItem thêm phần tử vào cuối section danh sách
func (h *EditorHandler) AppendItem(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.AppendItemInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		item, err := session.AppendItem(input.Section, &editor.Item{Text: input.Text, Fields: input.Fields})
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, fiber.Map{"item": item, "session": sessionView(session)}, nil)
		return nil
	})
}

// RemoveItem xóa phần tử khỏi danh sách theo vị trí
func (h *EditorHandler) RemoveItem(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.RemoveItemInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := session.RemoveItem(c.Context(), input.Section, *input.Index); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// MoveItem di chuyển phần tử lên/xuống một bậc
func (h *EditorHandler) MoveItem(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.MoveItemInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if input.Direction == "up" {
			err = session.MoveItemUp(c.Context(), input.Section, *input.Index)
		} else {
			err = session.MoveItemDown(c.Context(), input.Section, *input.Index)
		}
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// Reorder sắp xếp lại toàn bộ danh sách theo thứ tự ID mới
func (h *EditorHandler) Reorder(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.ReorderInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := session.Reorder(c.Context(), input.Section, input.OrderedIDs); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogEditor("reorder", session.Doc.EntityType, session.DocumentID(), c, map[string]interface{}{
			"section": input.Section,
		})
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// UpdateItemField cập nhật một field của phần tử trong danh sách
func (h *EditorHandler) UpdateItemField(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.UpdateItemFieldInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := session.UpdateItemField(c.Context(), input.Section, input.ItemID, input.Field, input.Value); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// decodeFile giải mã file base64 từ request
func decodeFile(in contentdto.UploadFileInput) (editor.LocalFile, error) {
	data, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return editor.LocalFile{}, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Nội dung file không phải base64 hợp lệ: %v", err),
			common.StatusBadRequest,
			err,
		)
	}
	return editor.LocalFile{
		Name:        in.FileName,
		ContentType: in.ContentType,
		Data:        data,
	}, nil
}

// UploadAsset upload một file vào một slot của tài liệu
func (h *EditorHandler) UploadAsset(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.UploadAssetInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		file, err := decodeFile(input.File)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		slot := editor.SlotRef{Section: input.Section, Field: input.Field, ItemID: input.ItemID}
		destPath := storage.StorageKey(session.Doc.Schema.StoragePrefix, file.Name)
		ref, err := session.UploadAsset(c.Context(), file, slot, destPath)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogAsset("upload", ref.StoragePath, c, map[string]interface{}{
			"entity_type": session.Doc.EntityType,
			"section":     input.Section,
		})
		h.HandleResponse(c, fiber.Map{"asset": ref, "session": sessionView(session)}, nil)
		return nil
	})
}

// UploadAssetBatch upload nhiều file vào gallery.
// Mỗi file tạo một phần tử mới; kết quả trả về theo đúng thứ tự gửi lên,
// file lỗi không làm hỏng các file khác.
func (h *EditorHandler) UploadAssetBatch(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.UploadAssetBatchInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		files := make([]editor.LocalFile, len(input.Files))
		for i, fileInput := range input.Files {
			file, err := decodeFile(fileInput)
			if err != nil {
				h.HandleResponse(c, nil, err)
				return nil
			}
			files[i] = file
		}

		outcomes, err := session.UploadBatch(c.Context(), input.Section, files)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		results := make([]fiber.Map, len(outcomes))
		for i, outcome := range outcomes {
			result := fiber.Map{"index": i}
			if outcome.Err != nil {
				result["error"] = outcome.Err.Error()
			} else {
				result["asset"] = outcome.Ref
			}
			results[i] = result
		}

		logger.LogAsset("upload_batch", session.Doc.Schema.StoragePrefix, c, map[string]interface{}{
			"entity_type": session.Doc.EntityType,
			"section":     input.Section,
			"file_count":  len(input.Files),
		})
		h.HandleResponse(c, fiber.Map{"results": results, "session": sessionView(session)}, nil)
		return nil
	})
}

// ReleaseAsset gỡ file khỏi slot; file mồ côi được dọn nền
func (h *EditorHandler) ReleaseAsset(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input contentdto.ReleaseAssetInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if err := h.ValidateInput(&input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		slot := editor.SlotRef{Section: input.Section, Field: input.Field, ItemID: input.ItemID}
		if err := session.ReleaseAsset(c.Context(), slot); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// SaveDraft lưu nháp tài liệu, bỏ qua kiểm tra ràng buộc
func (h *EditorHandler) SaveDraft(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if err := session.SaveDraft(c.Context()); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		logger.LogEditor("save_draft", session.Doc.EntityType, session.DocumentID(), c, nil)
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}

// Publish kiểm tra toàn bộ tài liệu rồi xuất bản.
// Có vi phạm thì trả về danh sách đầy đủ để người dùng sửa một lần.
func (h *EditorHandler) Publish(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		session, err := h.session(c)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		result, err := session.Publish(c.Context())
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if !result.Empty() {
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput,
				"Nội dung chưa đạt yêu cầu xuất bản",
				common.StatusBadRequest,
				result.Errors,
			))
			return nil
		}

		logger.LogEditor("publish", session.Doc.EntityType, session.DocumentID(), c, nil)
		h.HandleResponse(c, sessionView(session), nil)
		return nil
	})
}
