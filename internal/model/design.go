// Package model 定义了与数据库表对应的 Go 结构体。
package model

// Design 是演示文稿的一个设计模板。渲染服务按 ID 解析配色，
// 这里只保留选择列表需要的元数据。
type Design struct {
	ID   string
	Name string
}

// Designs 是可选的设计模板目录，按展示顺序排列。
var Designs = []Design{
	{ID: "1", Name: "Klassik Ko'k"},
	{ID: "2", Name: "Professional"},
	{ID: "3", Name: "Zamonaviy"},
	{ID: "4", Name: "Qizil energiya"},
	{ID: "5", Name: "Yashil tabiat"},
}

// DesignName 返回设计 ID 对应的展示名，未知 ID 原样返回。
func DesignName(id string) string {
	for _, d := range Designs {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}

// ValidDesign 检查给定的设计 ID 是否在目录中。
func ValidDesign(id string) bool {
	for _, d := range Designs {
		if d.ID == id {
			return true
		}
	}
	return false
}
