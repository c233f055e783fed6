package global

import (
	"meta_travel/config"
	"meta_travel/internal/editor"
	"meta_travel/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// Các biến toàn cục của ứng dụng, được khởi tạo trong cmd/server/init*.go
var (
	// Validate là validator instance dùng chung cho toàn bộ ứng dụng
	Validate *validator.Validate

	// ServerConfig chứa cấu hình server đọc từ file env
	ServerConfig *config.Configuration

	// MongoClient là client kết nối MongoDB dùng chung
	MongoClient *mongo.Client

	// RegistryCollections quản lý các collection MongoDB theo tên
	RegistryCollections = registry.NewRegistry[*mongo.Collection]()

	// RegistrySchemas quản lý schema soạn thảo theo loại nội dung
	// (tour_package, destination, activity, blog)
	RegistrySchemas = registry.NewRegistry[*editor.Schema]()

	// RegistrySessions quản lý các phiên soạn thảo đang mở theo session ID
	RegistrySessions = registry.NewRegistry[*editor.Session]()

	// AssetStore là gateway lưu trữ file media (S3-compatible)
	AssetStore editor.AssetStore
)
