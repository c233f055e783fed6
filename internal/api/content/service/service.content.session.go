package contentsvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"meta_travel/internal/common"
	"meta_travel/internal/editor"
	"meta_travel/internal/global"
)

// SessionService quản lý các phiên soạn thảo đang mở.
// Mỗi phiên gắn với một người dùng và một tài liệu; phiên sống trong
// RegistrySessions cho đến khi đóng.
type SessionService struct {
	repo *ContentRepositoryService
}

// NewSessionService tạo mới SessionService
func NewSessionService() *SessionService {
	return &SessionService{
		repo: NewContentRepositoryService(),
	}
}

// uploadPolicy đọc chính sách upload từ cấu hình server
func (s *SessionService) uploadPolicy() editor.UploadPolicy {
	return editor.UploadPolicy{
		AllowedTypes: global.ServerConfig.UploadAllowedTypes(),
		MaxSizeBytes: global.ServerConfig.UploadMaxSizeBytes(),
	}
}

// Open mở phiên soạn thảo trên tài liệu mới
func (s *SessionService) Open(actor editor.Actor, entityType string) (*editor.Session, error) {
	schema, exist := global.RegistrySchemas.Get(entityType)
	if !exist {
		return nil, fmt.Errorf("loại nội dung %q chưa được đăng ký: %w", entityType, common.ErrNotFound)
	}

	session := editor.NewSession(uuid.New().String(), actor, schema, s.repo, global.AssetStore, s.uploadPolicy())
	if _, err := global.RegistrySessions.Register(session.ID, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Load mở phiên soạn thảo trên tài liệu đã có
func (s *SessionService) Load(ctx context.Context, actor editor.Actor, entityType string, documentID string) (*editor.Session, error) {
	schema, exist := global.RegistrySchemas.Get(entityType)
	if !exist {
		return nil, fmt.Errorf("loại nội dung %q chưa được đăng ký: %w", entityType, common.ErrNotFound)
	}

	session, err := editor.LoadSession(ctx, uuid.New().String(), actor, schema, s.repo, global.AssetStore, s.uploadPolicy(), documentID)
	if err != nil {
		return nil, err
	}
	if _, err := global.RegistrySessions.Register(session.ID, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get trả về phiên đang mở theo ID
func (s *SessionService) Get(sessionID string) (*editor.Session, error) {
	session, exist := global.RegistrySessions.Get(sessionID)
	if !exist {
		return nil, fmt.Errorf("phiên soạn thảo %q không tồn tại hoặc đã đóng: %w", sessionID, common.ErrNotFound)
	}
	return session, nil
}

// Close đóng phiên và gỡ khỏi registry
func (s *SessionService) Close(sessionID string) error {
	deleted, err := global.RegistrySessions.Clear(sessionID, func(session *editor.Session) error {
		session.Close()
		return nil
	})
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("phiên soạn thảo %q không tồn tại: %w", sessionID, common.ErrNotFound)
	}
	return nil
}
