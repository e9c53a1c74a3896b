package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goalRouter(userID uint) *gin.Engine {
	h := NewGoalHandler()
	router := newUserRouter(userID)
	router.GET("/goals", h.List)
	router.POST("/goals", h.Create)
	router.GET("/goals/:id", h.Get)
	router.PUT("/goals/:id", h.Update)
	router.DELETE("/goals/:id", h.Delete)
	router.GET("/goals/:id/deposits", h.ListDeposits)
	router.POST("/goals/:id/deposits", h.Deposit)
	router.DELETE("/goals/:id/deposits/:depositId", h.DeleteDeposit)
	return router
}

func TestGoalHandler_DepositLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user := mustUser(t, db, "ana@example.com")
	router := goalRouter(user.ID)

	w := perform(router, "POST", "/goals", `{"name":"Viagem","targetAmount":1000,"currentAmount":200,"deadline":"2024-12-31"}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	goal := dataOf(t, w)
	assert.Equal(t, false, goal["isCompleted"])
	goalPath := fmt.Sprintf("/goals/%d", uint(goal["id"].(float64)))

	w = perform(router, "POST", goalPath+"/deposits", `{"amount":300,"note":"bônus","date":"2024-03-10"}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	result := dataOf(t, w)
	assert.Equal(t, float64(500), result["goal"].(map[string]interface{})["currentAmount"])

	w = perform(router, "POST", goalPath+"/deposits", `{"amount":500}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	result = dataOf(t, w)
	reached := result["goal"].(map[string]interface{})
	assert.Equal(t, float64(1000), reached["currentAmount"])
	assert.Equal(t, true, reached["isCompleted"])
	depositID := uint(result["deposit"].(map[string]interface{})["id"].(float64))

	w = perform(router, "GET", goalPath+"/deposits", "")
	require.Equal(t, 200, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	// 删除存入后回退金额与完成状态
	w = perform(router, "DELETE", fmt.Sprintf("%s/deposits/%d", goalPath, depositID), "")
	require.Equal(t, 200, w.Code, w.Body.String())
	reverted := dataOf(t, w)
	assert.Equal(t, float64(500), reverted["currentAmount"])
	assert.Equal(t, false, reverted["isCompleted"])

	assert.Equal(t, 404, perform(router, "DELETE", fmt.Sprintf("%s/deposits/%d", goalPath, depositID), "").Code)
}

func TestGoalHandler_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	user := mustUser(t, db, "ana@example.com")
	router := goalRouter(user.ID)

	w := perform(router, "POST", "/goals", `{"name":"Carro","targetAmount":5000,"currentAmount":3000,"deadline":"2025-06-30"}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	goalPath := fmt.Sprintf("/goals/%d", uint(dataOf(t, w)["id"].(float64)))

	w = perform(router, "PUT", goalPath, `{"targetAmount":2500,"clearDeadline":true}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	updated := dataOf(t, w)
	assert.Equal(t, true, updated["isCompleted"])
	assert.Nil(t, updated["deadline"])

	w = perform(router, "PUT", goalPath, `{"deadline":"31/12/2025"}`)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "deadline")

	assert.Equal(t, 404, perform(goalRouter(user.ID+1), "GET", goalPath, "").Code)

	require.Equal(t, 201, perform(router, "POST", goalPath+"/deposits", `{"amount":10}`).Code)
	assert.Equal(t, 200, perform(router, "DELETE", goalPath, "").Code)
	assert.Equal(t, 404, perform(router, "GET", goalPath, "").Code)

	w = perform(router, "GET", "/goals", "")
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode(t, w)["data"])
}

func TestGoalHandler_Create_Invalid(t *testing.T) {
	router := goalRouter(1)

	w := perform(router, "POST", "/goals", `{"name":"","targetAmount":0}`)
	assert.Equal(t, 400, w.Code)
	errs := decode(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "targetAmount")
}

func TestGoalHandler_List_DatabaseError(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `goals`").
		WithArgs(1).
		WillReturnError(errors.New("connection refused"))

	w := perform(goalRouter(1), "GET", "/goals", "")

	assert.Equal(t, 500, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Erro interno do servidor", resp["message"])
	assert.NotContains(t, w.Body.String(), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}
