package editor

import (
	"fmt"

	"meta_travel/internal/common"
)

// NewSchemaError tạo lỗi truy cập section/field không tồn tại trong schema.
// Đây là lỗi lập trình (gọi sai engine), không phải lỗi dữ liệu người dùng.
func NewSchemaError(format string, args ...interface{}) error {
	return common.NewError(common.ErrCodeSchemaUsage, fmt.Sprintf(format, args...), common.StatusInternalServerError, nil)
}

// IsSchemaError kiểm tra lỗi có phải lỗi schema không
func IsSchemaError(err error) bool {
	return common.IsCode(err, common.ErrCodeSchemaUsage)
}

// Lỗi kiểm tra file trước khi upload. Xảy ra đồng bộ, trước mọi network call.
var (
	ErrAssetTypeNotAllowed = common.NewError(common.ErrCodeAssetType, "Loại file không được phép upload", common.StatusUnsupportedMedia, nil)
	ErrAssetTooLarge       = common.NewError(common.ErrCodeAssetTooLarge, "File vượt quá kích thước cho phép", common.StatusPayloadTooLarge, nil)
)

// NewTransportError tạo lỗi giao tiếp với dịch vụ từ xa (repository hoặc object store).
// Lỗi này có thể retry được, không làm hỏng phiên soạn thảo.
func NewTransportError(op string, cause error) error {
	return common.NewError(common.ErrCodeTransport, fmt.Sprintf("Lỗi giao tiếp khi %s: %v", op, cause), common.StatusBadGateway, cause)
}

// IsTransportError kiểm tra lỗi có phải lỗi giao tiếp không
func IsTransportError(err error) bool {
	return common.IsCode(err, common.ErrCodeTransport)
}
