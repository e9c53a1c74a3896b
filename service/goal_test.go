package service

import (
	"testing"

	"finplan/models"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type GoalServiceSuite struct {
	suite.Suite
	db   *gorm.DB
	svc  *GoalService
	user models.User
}

func (s *GoalServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewGoalService(s.db)
	s.user = mustUser(s.T(), s.db, "ana@example.com")
}

func (s *GoalServiceSuite) TestDeposit_CompletesGoal() {
	goal, err := s.svc.Create(s.user.ID, GoalInput{Name: "Viagem", TargetAmount: dec("1500"), CurrentAmount: dec("1000")})
	s.Require().NoError(err)
	s.False(goal.IsCompleted)

	res, err := s.svc.Deposit(s.user.ID, goal.ID, DepositInput{Amount: dec("500"), Note: "bônus"})
	s.Require().NoError(err)
	s.True(res.Goal.IsCompleted)
	s.Equal("1500.00", res.Goal.CurrentAmount.StringFixed(2))
	s.Equal("500.00", res.Deposit.Amount.StringFixed(2))
	s.Equal(goal.ID, res.Deposit.GoalID)

	var stored models.Goal
	s.Require().NoError(s.db.First(&stored, goal.ID).Error)
	s.True(stored.IsCompleted)
	s.Equal("1500.00", stored.CurrentAmount.StringFixed(2))

	deposits, err := s.svc.ListDeposits(s.user.ID, goal.ID)
	s.Require().NoError(err)
	s.Len(deposits, 1)
}

func (s *GoalServiceSuite) TestDeleteDeposit_Reverses() {
	goal, err := s.svc.Create(s.user.ID, GoalInput{Name: "Reserva", TargetAmount: dec("1500"), CurrentAmount: dec("1000")})
	s.Require().NoError(err)
	res, err := s.svc.Deposit(s.user.ID, goal.ID, DepositInput{Amount: dec("500")})
	s.Require().NoError(err)

	reverted, err := s.svc.DeleteDeposit(s.user.ID, goal.ID, res.Deposit.ID)
	s.Require().NoError(err)
	s.False(reverted.IsCompleted)
	s.Equal("1000.00", reverted.CurrentAmount.StringFixed(2))

	_, err = s.svc.DeleteDeposit(s.user.ID, goal.ID, res.Deposit.ID)
	s.True(isNotFound(err))
}

func (s *GoalServiceSuite) TestDeposit_Validation() {
	goal, err := s.svc.Create(s.user.ID, GoalInput{Name: "Carro", TargetAmount: dec("30000")})
	s.Require().NoError(err)

	_, err = s.svc.Deposit(s.user.ID, goal.ID, DepositInput{Amount: dec("0")})
	s.True(isValidation(err))

	other := mustUser(s.T(), s.db, "bia@example.com")
	_, err = s.svc.Deposit(other.ID, goal.ID, DepositInput{Amount: dec("10")})
	s.True(isNotFound(err))

	var count int64
	s.db.Model(&models.GoalDeposit{}).Count(&count)
	s.Zero(count)
}

func (s *GoalServiceSuite) TestUpdate_TargetRecomputesCompletion() {
	goal, err := s.svc.Create(s.user.ID, GoalInput{Name: "Curso", TargetAmount: dec("800"), CurrentAmount: dec("600")})
	s.Require().NoError(err)

	updated, err := s.svc.Update(s.user.ID, goal.ID, GoalUpdate{TargetAmount: decPtr("600")})
	s.Require().NoError(err)
	s.True(updated.IsCompleted)

	name := "Curso de inglês"
	updated, err = s.svc.Update(s.user.ID, goal.ID, GoalUpdate{Name: &name, TargetAmount: decPtr("900")})
	s.Require().NoError(err)
	s.False(updated.IsCompleted)
	s.Equal("Curso de inglês", updated.Name)

	_, err = s.svc.Update(s.user.ID, goal.ID, GoalUpdate{TargetAmount: decPtr("0")})
	s.True(isValidation(err))
}

func (s *GoalServiceSuite) TestDelete_CascadesDeposits() {
	goal, err := s.svc.Create(s.user.ID, GoalInput{Name: "Casa", TargetAmount: dec("100000")})
	s.Require().NoError(err)
	_, err = s.svc.Deposit(s.user.ID, goal.ID, DepositInput{Amount: dec("100")})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.user.ID, goal.ID))

	var deposits int64
	s.db.Model(&models.GoalDeposit{}).Count(&deposits)
	s.Zero(deposits)
	s.True(isNotFound(s.svc.Delete(s.user.ID, goal.ID)))
}

func (s *GoalServiceSuite) TestList() {
	_, err := s.svc.Create(s.user.ID, GoalInput{Name: "Feita", TargetAmount: dec("10"), CurrentAmount: dec("10")})
	s.Require().NoError(err)
	_, err = s.svc.Create(s.user.ID, GoalInput{Name: "Aberta", TargetAmount: dec("10")})
	s.Require().NoError(err)

	goals, err := s.svc.List(s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(goals, 2)
	s.Equal("Aberta", goals[0].Name)
}

func TestGoalServiceSuite(t *testing.T) {
	suite.Run(t, new(GoalServiceSuite))
}
