package models

// SchemaVersion 当前持久化文档的结构版本；没有 version 字段的旧文档视为版本 0
const SchemaVersion = 1

// Document 持久化文档，整个车辆集合存放在同一个键下
type Document struct {
	Version int       `json:"version"`
	Cars    []Vehicle `json:"cars"`
}

// NewDocument 基于车辆列表的深拷贝创建当前版本的文档
func NewDocument(cars []Vehicle) *Document {
	return &Document{
		Version: SchemaVersion,
		Cars:    CloneVehicles(cars),
	}
}
