package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Bao gồm kết nối cơ sở dữ liệu, kho lưu trữ object (S3-compatible)
// và chính sách upload cho trình soạn thảo nội dung.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Địa chỉ server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu nội dung
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting
	// S3 Configuration (tương thích S3: MinIO, R2, ...)
	S3_Endpoint      string `env:"S3_ENDPOINT,required"`        // Endpoint của object store
	S3_Region        string `env:"S3_REGION" envDefault:"auto"` // Region (MinIO/R2 dùng "auto")
	S3_AccessKey     string `env:"S3_ACCESS_KEY,required"`      // Access key
	S3_SecretKey     string `env:"S3_SECRET_KEY,required"`      // Secret key
	S3_Bucket        string `env:"S3_BUCKET,required"`          // Bucket lưu media của nội dung
	S3_PublicBaseURL string `env:"S3_PUBLIC_BASE_URL,required"` // Base URL công khai để tạo URL ảnh
	// Upload Policy (chính sách upload, được truyền vào editor khi khởi tạo)
	Upload_AllowedTypes string `env:"UPLOAD_ALLOWED_TYPES" envDefault:"image/jpeg,image/png,image/webp,image/gif"` // MIME types được phép
	Upload_MaxSizeMB    int64  `env:"UPLOAD_MAX_SIZE_MB" envDefault:"5"`                                           // Kích thước file tối đa (MB)
}

// UploadAllowedTypes trả về danh sách MIME types được phép upload
func (c *Configuration) UploadAllowedTypes() []string {
	parts := strings.Split(c.Upload_AllowedTypes, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			types = append(types, p)
		}
	}
	return types
}

// UploadMaxSizeBytes trả về kích thước file tối đa tính bằng bytes
func (c *Configuration) UploadMaxSizeBytes() int64 {
	return c.Upload_MaxSizeMB * 1024 * 1024
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			// Tìm thấy thư mục config/env
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		// Đi lên thư mục cha
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
