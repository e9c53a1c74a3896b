package service

import (
	"errors"

	"finplan/models"

	"gorm.io/gorm"
)

// CategoryService 分类的层级校验与删除
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService 创建分类服务
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) owned(userID, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Categoria não encontrada")
		}
		return nil, err
	}
	return &c, nil
}

// Get 当前用户的分类
func (s *CategoryService) Get(userID, id uint) (*models.Category, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.owned(userID, id)
}

// ValidateParent 校验父分类：属于当前用户、本身是顶级分类、不是自己
// selfID 为 0 表示新建
func (s *CategoryService) ValidateParent(userID uint, parentID *uint, selfID uint) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return FieldError("parentId", "Uma categoria não pode ser pai de si mesma")
	}

	var parent models.Category
	if err := s.db.Where("id = ? AND user_id = ?", *parentID, userID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("Categoria pai não encontrada")
		}
		return err
	}
	if parent.ParentID != nil {
		return FieldError("parentId", "Apenas um nível de subcategoria é permitido")
	}

	if selfID != 0 {
		var children int64
		if err := s.db.Model(&models.Category{}).Where("parent_id = ?", selfID).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return FieldError("parentId", "Uma categoria com subcategorias não pode ter categoria pai")
		}
	}
	return nil
}

// Delete 删除分类：子分类提升为顶级，交易取消分类，删除该分类的预算
func (s *CategoryService) Delete(userID, id uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	category, err := s.owned(userID, id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Category{}).
			Where("user_id = ? AND parent_id = ?", userID, category.ID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND category_id = ?", userID, category.ID).
			Delete(&models.CategoryBudget{}).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
}

// SeedDefaults 为新用户写入默认分类
func SeedDefaults(tx *gorm.DB, userID uint) error {
	defaults := models.DefaultCategories(userID)
	return tx.Create(&defaults).Error
}
