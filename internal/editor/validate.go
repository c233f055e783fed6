package editor

import (
	"fmt"
	"strings"
)

// ValidationIssue là một vi phạm ràng buộc, gắn với section/field cụ thể
type ValidationIssue struct {
	Section string `json:"section"`         // Section chứa vi phạm
	Field   string `json:"field,omitempty"` // Field vi phạm (rỗng nếu vi phạm ở mức section)
	Message string `json:"message"`         // Thông báo cho người dùng
}

// ValidationResult gom toàn bộ vi phạm của một lần kiểm tra.
// Kiểm tra không dừng ở lỗi đầu tiên; người dùng thấy tất cả lỗi một lần.
type ValidationResult struct {
	Errors []ValidationIssue `json:"errors"`
}

// Empty cho biết kết quả không có vi phạm nào
func (r *ValidationResult) Empty() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) add(section, field, message string) {
	r.Errors = append(r.Errors, ValidationIssue{Section: section, Field: field, Message: message})
}

// Validate kiểm tra toàn bộ tài liệu theo ràng buộc trong schema.
// Duyệt hết mọi section và field, gom tất cả vi phạm trước khi trả về.
func (d *Document) Validate() *ValidationResult {
	result := &ValidationResult{}

	for name, state := range d.Sections {
		sec := state.Schema
		if sec.IsCollection {
			// Ràng buộc số phần tử tối thiểu. Với danh sách text, phần tử
			// rỗng không tính là nội dung.
			count := 0
			for _, it := range state.Items {
				if sec.ItemKind == ItemText && strings.TrimSpace(it.Text) == "" {
					continue
				}
				count++
			}
			if sec.MinItems > 0 && count < sec.MinItems {
				result.add(name, "", fmt.Sprintf("Cần ít nhất %d phần tử", sec.MinItems))
			}

			// Ràng buộc field của từng phần tử (danh sách record/asset)
			for _, it := range state.Items {
				switch sec.ItemKind {
				case ItemRecord:
					for fieldName, constraint := range sec.Fields {
						validateFieldValue(result, name, fieldName, constraint, it.Fields[fieldName])
					}
				case ItemAsset:
					// Phần tử gallery phải có ảnh đã upload
					if it.Asset == nil || !it.Asset.Uploaded {
						result.add(name, "", "Phần tử trong danh sách ảnh chưa có ảnh được upload")
					}
				}
			}
		} else {
			for fieldName, constraint := range sec.Fields {
				validateFieldValue(result, name, fieldName, constraint, state.Fields[fieldName])
			}
		}
	}

	return result
}

// validateFieldValue kiểm tra một giá trị field theo ràng buộc
func validateFieldValue(result *ValidationResult, section, field string, constraint FieldConstraint, value interface{}) {
	switch constraint.Kind {
	case FieldString:
		s, _ := value.(string)
		if constraint.Required && strings.TrimSpace(s) == "" {
			result.add(section, field, fmt.Sprintf("Trường %s là bắt buộc", field))
		}
	case FieldInt, FieldFloat:
		num, ok := toFloat(value)
		if !ok {
			if constraint.Required {
				result.add(section, field, fmt.Sprintf("Trường %s là bắt buộc", field))
			}
			return
		}
		if constraint.Minimum != nil && num < *constraint.Minimum {
			result.add(section, field, fmt.Sprintf("Trường %s phải lớn hơn hoặc bằng %g", field, *constraint.Minimum))
		}
		if constraint.Maximum != nil && num > *constraint.Maximum {
			result.add(section, field, fmt.Sprintf("Trường %s phải nhỏ hơn hoặc bằng %g", field, *constraint.Maximum))
		}
	case FieldBool:
		// Boolean không có ràng buộc bổ sung
	case FieldAsset:
		ref, _ := value.(*AssetRef)
		if constraint.Required && (ref == nil || !ref.Uploaded) {
			result.add(section, field, fmt.Sprintf("Trường %s cần ảnh đã được upload", field))
		}
	}
}

// toFloat chuyển giá trị số về float64 để so sánh min/max
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
