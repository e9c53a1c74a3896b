package service

import (
	"errors"
	"time"

	"finplan/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalService 储蓄目标与存入记录
type GoalService struct {
	db *gorm.DB
}

// NewGoalService 创建储蓄目标服务
func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db}
}

// GoalInput 新建目标
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
	Color         string
	Icon          string
}

// GoalUpdate 目标的部分更新
type GoalUpdate struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	Deadline      *time.Time
	ClearDeadline bool
	Color         *string
	Icon          *string
}

func (s *GoalService) ownedGoal(db *gorm.DB, userID, goalID uint) (*models.Goal, error) {
	var goal models.Goal
	if err := db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Meta não encontrada")
		}
		return nil, err
	}
	return &goal, nil
}

// List 用户的全部目标，未完成的在前
func (s *GoalService) List(userID uint) ([]models.Goal, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	goals := []models.Goal{}
	err := s.db.Where("user_id = ?", userID).Order("is_completed ASC, id DESC").Find(&goals).Error
	return goals, err
}

// Get 单个目标
func (s *GoalService) Get(userID, goalID uint) (*models.Goal, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.ownedGoal(s.db, userID, goalID)
}

// Create 新建目标
func (s *GoalService) Create(userID uint, in GoalInput) (*models.Goal, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	name, err := trimmedName(in.Name)
	if err != nil {
		return nil, err
	}
	if !in.TargetAmount.IsPositive() {
		return nil, FieldError("targetAmount", "O valor da meta deve ser maior que zero")
	}
	if in.CurrentAmount.IsNegative() {
		return nil, FieldError("currentAmount", "O valor atual não pode ser negativo")
	}

	goal := models.Goal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  in.TargetAmount.Round(2),
		CurrentAmount: in.CurrentAmount.Round(2),
		Deadline:      in.Deadline,
		Color:         in.Color,
		Icon:          in.Icon,
	}
	goal.IsCompleted = goal.Reached()
	if err := s.db.Create(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// Update 更新目标；修改目标金额会重新计算完成状态
func (s *GoalService) Update(userID, goalID uint, upd GoalUpdate) (*models.Goal, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	updates := map[string]interface{}{}
	if upd.Name != nil {
		name, err := trimmedName(*upd.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if upd.TargetAmount != nil {
		if !upd.TargetAmount.IsPositive() {
			return nil, FieldError("targetAmount", "O valor da meta deve ser maior que zero")
		}
		updates["target_amount"] = upd.TargetAmount.Round(2)
	}
	if upd.ClearDeadline {
		updates["deadline"] = nil
	} else if upd.Deadline != nil {
		updates["deadline"] = *upd.Deadline
	}
	if upd.Color != nil {
		updates["color"] = *upd.Color
	}
	if upd.Icon != nil {
		updates["icon"] = *upd.Icon
	}

	var goal *models.Goal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		g, err := s.ownedGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		if upd.TargetAmount != nil {
			g.TargetAmount = upd.TargetAmount.Round(2)
			updates["is_completed"] = g.Reached()
		}
		if len(updates) > 0 {
			if err := tx.Model(g).Updates(updates).Error; err != nil {
				return err
			}
		}
		goal, err = s.ownedGoal(tx, userID, goalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// Delete 删除目标及其存入记录
func (s *GoalService) Delete(userID, goalID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		goal, err := s.ownedGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", goal.ID).Delete(&models.GoalDeposit{}).Error; err != nil {
			return err
		}
		return tx.Delete(goal).Error
	})
}

// DepositInput 存入金额
type DepositInput struct {
	Amount decimal.Decimal
	Note   string
	Date   *time.Time
}

// DepositResult 存入后的目标与新记录
type DepositResult struct {
	Goal    *models.Goal        `json:"goal"`
	Deposit *models.GoalDeposit `json:"deposit"`
}

// refreshCompletion 重新读取目标并同步 is_completed
func refreshCompletion(tx *gorm.DB, goal *models.Goal) error {
	if err := tx.First(goal, goal.ID).Error; err != nil {
		return err
	}
	reached := goal.Reached()
	if reached == goal.IsCompleted {
		return nil
	}
	goal.IsCompleted = reached
	return tx.Model(goal).Update("is_completed", reached).Error
}

// Deposit 存入：记录与目标金额在同一事务内更新，达到目标后标记完成
func (s *GoalService) Deposit(userID, goalID uint, in DepositInput) (*DepositResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if !in.Amount.IsPositive() {
		return nil, FieldError("amount", "O valor do depósito deve ser maior que zero")
	}
	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	result := &DepositResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		goal, err := s.ownedGoal(tx, userID, goalID)
		if err != nil {
			return err
		}

		deposit := models.GoalDeposit{
			GoalID: goal.ID,
			UserID: userID,
			Amount: in.Amount.Round(2),
			Note:   in.Note,
			Date:   date,
		}
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}
		if err := tx.Model(goal).
			Update("current_amount", gorm.Expr("current_amount + ?", deposit.Amount)).Error; err != nil {
			return err
		}
		if err := refreshCompletion(tx, goal); err != nil {
			return err
		}
		result.Goal = goal
		result.Deposit = &deposit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListDeposits 目标的存入记录，按日期倒序
func (s *GoalService) ListDeposits(userID, goalID uint) ([]models.GoalDeposit, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if _, err := s.ownedGoal(s.db, userID, goalID); err != nil {
		return nil, err
	}
	deposits := []models.GoalDeposit{}
	err := s.db.Where("goal_id = ? AND user_id = ?", goalID, userID).
		Order("date DESC, id DESC").
		Find(&deposits).Error
	return deposits, err
}

// DeleteDeposit 删除存入记录并回退目标金额
func (s *GoalService) DeleteDeposit(userID, goalID, depositID uint) (*models.Goal, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	var goal *models.Goal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		g, err := s.ownedGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		var deposit models.GoalDeposit
		if err := tx.Where("id = ? AND goal_id = ? AND user_id = ?", depositID, g.ID, userID).
			First(&deposit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("Depósito não encontrado")
			}
			return err
		}
		if err := tx.Delete(&deposit).Error; err != nil {
			return err
		}
		if err := tx.Model(g).
			Update("current_amount", gorm.Expr("current_amount - ?", deposit.Amount)).Error; err != nil {
			return err
		}
		if err := refreshCompletion(tx, g); err != nil {
			return err
		}
		goal = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}
