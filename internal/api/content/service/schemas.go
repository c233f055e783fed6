package contentsvc

import (
	contentmodels "meta_travel/internal/api/content/models"
	"meta_travel/internal/editor"
	"meta_travel/internal/global"
)

// Schema của từng loại nội dung. Toàn bộ cấu trúc và ràng buộc nằm ở đây,
// engine soạn thảo chỉ đọc schema, không biết gì về tour hay blog.

// NewTourPackageSchema trả về schema cho gói tour
func NewTourPackageSchema() *editor.Schema {
	return &editor.Schema{
		EntityType:     contentmodels.EntityTourPackage,
		CollectionName: contentmodels.ColTourPackages,
		StoragePrefix:  contentmodels.StoragePrefixTourPackage,
		Sections: map[string]*editor.SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]editor.FieldConstraint{
					"title":         {Kind: editor.FieldString, Required: true},
					"summary":       {Kind: editor.FieldString, Required: true},
					"description":   {Kind: editor.FieldString},
					"duration_days": {Kind: editor.FieldInt, Required: true, Minimum: editor.FloatPtr(1)},
					"price":         {Kind: editor.FieldFloat, Required: true, Minimum: editor.FloatPtr(0)},
					"rating":        {Kind: editor.FieldFloat, Minimum: editor.FloatPtr(0), Maximum: editor.FloatPtr(5)},
					"featured":      {Kind: editor.FieldBool},
					"cover":         {Kind: editor.FieldAsset, Required: true},
				},
			},
			"gallery": {
				Name:         "gallery",
				IsCollection: true,
				ItemKind:     editor.ItemAsset,
				MinItems:     1,
			},
			"highlights": {
				Name:         "highlights",
				IsCollection: true,
				ItemKind:     editor.ItemText,
				MinItems:     1,
			},
			"included_services": {
				Name:         "included_services",
				IsCollection: true,
				ItemKind:     editor.ItemText,
			},
			"excluded_services": {
				Name:         "excluded_services",
				IsCollection: true,
				ItemKind:     editor.ItemText,
			},
			"itinerary": {
				Name:         "itinerary",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				MinItems:     1,
				Fields: map[string]editor.FieldConstraint{
					"day_title":   {Kind: editor.FieldString, Required: true},
					"description": {Kind: editor.FieldString},
					"image":       {Kind: editor.FieldAsset},
				},
			},
			"faqs": {
				Name:         "faqs",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				Fields: map[string]editor.FieldConstraint{
					"question": {Kind: editor.FieldString, Required: true},
					"answer":   {Kind: editor.FieldString, Required: true},
				},
			},
			"places": {
				Name:         "places",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				Fields: map[string]editor.FieldConstraint{
					"name":        {Kind: editor.FieldString, Required: true},
					"description": {Kind: editor.FieldString},
					"image":       {Kind: editor.FieldAsset},
				},
			},
			"reviews": {
				Name:         "reviews",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				Fields: map[string]editor.FieldConstraint{
					"author":  {Kind: editor.FieldString, Required: true},
					"rating":  {Kind: editor.FieldFloat, Minimum: editor.FloatPtr(0), Maximum: editor.FloatPtr(5)},
					"comment": {Kind: editor.FieldString},
				},
			},
		},
	}
}

// NewDestinationSchema trả về schema cho điểm đến
func NewDestinationSchema() *editor.Schema {
	return &editor.Schema{
		EntityType:     contentmodels.EntityDestination,
		CollectionName: contentmodels.ColDestinations,
		StoragePrefix:  contentmodels.StoragePrefixDestination,
		Sections: map[string]*editor.SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]editor.FieldConstraint{
					"name":        {Kind: editor.FieldString, Required: true},
					"region":      {Kind: editor.FieldString},
					"description": {Kind: editor.FieldString, Required: true},
					"rating":      {Kind: editor.FieldFloat, Minimum: editor.FloatPtr(0), Maximum: editor.FloatPtr(5)},
					"cover":       {Kind: editor.FieldAsset, Required: true},
				},
			},
			"gallery": {
				Name:         "gallery",
				IsCollection: true,
				ItemKind:     editor.ItemAsset,
				MinItems:     1,
			},
			"highlights": {
				Name:         "highlights",
				IsCollection: true,
				ItemKind:     editor.ItemText,
				MinItems:     1,
			},
			"attractions": {
				Name:         "attractions",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				Fields: map[string]editor.FieldConstraint{
					"name":        {Kind: editor.FieldString, Required: true},
					"description": {Kind: editor.FieldString},
					"image":       {Kind: editor.FieldAsset},
				},
			},
		},
	}
}

// NewActivitySchema trả về schema cho hoạt động
func NewActivitySchema() *editor.Schema {
	return &editor.Schema{
		EntityType:     contentmodels.EntityActivity,
		CollectionName: contentmodels.ColActivities,
		StoragePrefix:  contentmodels.StoragePrefixActivity,
		Sections: map[string]*editor.SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]editor.FieldConstraint{
					"title":          {Kind: editor.FieldString, Required: true},
					"description":    {Kind: editor.FieldString, Required: true},
					"price":          {Kind: editor.FieldFloat, Minimum: editor.FloatPtr(0)},
					"duration_hours": {Kind: editor.FieldInt, Minimum: editor.FloatPtr(0)},
					"cover":          {Kind: editor.FieldAsset, Required: true},
				},
			},
			"gallery": {
				Name:         "gallery",
				IsCollection: true,
				ItemKind:     editor.ItemAsset,
			},
			"tips": {
				Name:         "tips",
				IsCollection: true,
				ItemKind:     editor.ItemText,
			},
		},
	}
}

// NewBlogSchema trả về schema cho bài blog
func NewBlogSchema() *editor.Schema {
	return &editor.Schema{
		EntityType:     contentmodels.EntityBlog,
		CollectionName: contentmodels.ColBlogs,
		StoragePrefix:  contentmodels.StoragePrefixBlog,
		Sections: map[string]*editor.SectionSchema{
			"basic_info": {
				Name: "basic_info",
				Fields: map[string]editor.FieldConstraint{
					"title":   {Kind: editor.FieldString, Required: true},
					"author":  {Kind: editor.FieldString, Required: true},
					"summary": {Kind: editor.FieldString},
					"cover":   {Kind: editor.FieldAsset, Required: true},
				},
			},
			"body_sections": {
				Name:         "body_sections",
				IsCollection: true,
				ItemKind:     editor.ItemRecord,
				MinItems:     1,
				Fields: map[string]editor.FieldConstraint{
					"heading": {Kind: editor.FieldString},
					"content": {Kind: editor.FieldString, Required: true},
					"image":   {Kind: editor.FieldAsset},
				},
			},
			"tags": {
				Name:         "tags",
				IsCollection: true,
				ItemKind:     editor.ItemText,
			},
		},
	}
}

// RegisterSchemas đăng ký schema của mọi loại nội dung vào registry.
// Gọi một lần lúc khởi động, trước khi mở bất kỳ phiên soạn thảo nào.
func RegisterSchemas() error {
	schemas := []*editor.Schema{
		NewTourPackageSchema(),
		NewDestinationSchema(),
		NewActivitySchema(),
		NewBlogSchema(),
	}
	for _, schema := range schemas {
		if _, err := global.RegistrySchemas.Register(schema.EntityType, schema); err != nil {
			return err
		}
	}
	return nil
}
