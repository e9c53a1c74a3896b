package models

import (
	"time"
)

// DefaultCategoryColor 默认颜色（灰色）
const DefaultCategoryColor = "#64748b"

// Category 用户分类，最多一层父子嵌套
type Category struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"userId" gorm:"index;not null"`
	Name      string     `json:"name" gorm:"size:50;not null"`
	Icon      string     `json:"icon" gorm:"size:50"`
	Color     string     `json:"color" gorm:"size:20;default:#64748b"`
	ParentID  *uint      `json:"parentId" gorm:"index"`
	Children  []Category `json:"children,omitempty" gorm:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories 新用户的默认分类
func DefaultCategories(userID uint) []Category {
	defaults := []struct {
		Name  string
		Icon  string
		Color string
	}{
		{"Alimentação", "utensils", "#ef4444"},
		{"Transporte", "car", "#3b82f6"},
		{"Moradia", "home", "#14b8a6"},
		{"Saúde", "heart-pulse", "#10b981"},
		{"Lazer", "gamepad", "#ec4899"},
		{"Educação", "book", "#f59e0b"},
		{"Salário", "wallet", "#22c55e"},
		{"Outros", "tag", DefaultCategoryColor},
	}
	cats := make([]Category, 0, len(defaults))
	for _, d := range defaults {
		cats = append(cats, Category{UserID: userID, Name: d.Name, Icon: d.Icon, Color: d.Color})
	}
	return cats
}

// BuildCategoryTree 将平铺的分类整理为父子结构，保持输入顺序
// 父分类不存在（或不属于该列表）的子分类按顶级分类返回
func BuildCategoryTree(list []Category) []Category {
	index := make(map[uint]int, len(list))
	var roots []Category
	for _, c := range list {
		if c.ParentID == nil {
			index[c.ID] = len(roots)
			c.Children = nil
			roots = append(roots, c)
		}
	}
	for _, c := range list {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			roots[i].Children = append(roots[i].Children, c)
			continue
		}
		roots = append(roots, c)
	}
	return roots
}
