// Package models định nghĩa các loại nội dung marketing mà trình soạn thảo quản lý.
package models

// Các loại nội dung được hỗ trợ. Mỗi loại có schema riêng đăng ký trong
// RegistrySchemas nhưng tất cả chạy qua cùng một engine soạn thảo.
const (
	EntityTourPackage = "tour_package" // Gói tour
	EntityDestination = "destination"  // Điểm đến
	EntityActivity    = "activity"     // Hoạt động
	EntityBlog        = "blog"         // Bài blog
)

// Tên collection MongoDB cho từng loại nội dung
const (
	ColTourPackages = "tour_packages"
	ColDestinations = "destinations"
	ColActivities   = "activities"
	ColBlogs        = "blogs"
)

// Prefix đường dẫn lưu file media trên object store cho từng loại nội dung
const (
	StoragePrefixTourPackage = "media/tour-packages"
	StoragePrefixDestination = "media/destinations"
	StoragePrefixActivity    = "media/activities"
	StoragePrefixBlog        = "media/blogs"
)

// AllCollectionNames trả về tên mọi collection nội dung, dùng khi khởi tạo registry
func AllCollectionNames() []string {
	return []string{ColTourPackages, ColDestinations, ColActivities, ColBlogs}
}
