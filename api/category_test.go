package api

import (
	"fmt"
	"testing"

	"finplan/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRouter(userID uint) *gin.Engine {
	h := NewCategoryHandler()
	router := newUserRouter(userID)
	router.GET("/categories", h.List)
	router.POST("/categories", h.Create)
	router.GET("/categories/:id", h.Get)
	router.PUT("/categories/:id", h.Update)
	router.DELETE("/categories/:id", h.Delete)
	return router
}

func TestCategoryHandler_CreateAndTree(t *testing.T) {
	db := setupTestDB(t)
	user := mustUser(t, db, "ana@example.com")
	router := categoryRouter(user.ID)

	w := perform(router, "POST", "/categories", `{"name":"Casa"}`)
	require.Equal(t, 201, w.Code, w.Body.String())
	parent := dataOf(t, w)
	assert.Equal(t, models.DefaultCategoryColor, parent["color"])
	parentID := uint(parent["id"].(float64))

	w = perform(router, "POST", "/categories", fmt.Sprintf(`{"name":"Luz","parentId":%d}`, parentID))
	require.Equal(t, 201, w.Code, w.Body.String())
	childID := uint(dataOf(t, w)["id"].(float64))

	// 只支持一级子分类
	w = perform(router, "POST", "/categories", fmt.Sprintf(`{"name":"Conta","parentId":%d}`, childID))
	assert.Equal(t, 400, w.Code)

	w = perform(router, "GET", "/categories", "")
	require.Equal(t, 200, w.Code)
	tree := decode(t, w)["data"].([]interface{})
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].(map[string]interface{})["children"], 1)

	w = perform(router, "GET", "/categories?flat=true", "")
	require.Equal(t, 200, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	w = perform(router, "POST", "/categories", `{"name":"   "}`)
	assert.Equal(t, 400, w.Code)
}

func TestCategoryHandler_Update(t *testing.T) {
	db := setupTestDB(t)
	user := mustUser(t, db, "ana@example.com")
	parent := mustCategory(t, db, user.ID, "Casa")
	child := mustCategory(t, db, user.ID, "Luz")
	router := categoryRouter(user.ID)

	path := fmt.Sprintf("/categories/%d", child.ID)
	w := perform(router, "PUT", path, fmt.Sprintf(`{"name":"Energia","parentId":%d}`, parent.ID))
	require.Equal(t, 200, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, "Energia", data["name"])
	assert.Equal(t, float64(parent.ID), data["parentId"])

	w = perform(router, "PUT", path, fmt.Sprintf(`{"parentId":%d}`, child.ID))
	assert.Equal(t, 400, w.Code)

	w = perform(router, "PUT", path, `{"clearParent":true}`)
	require.Equal(t, 200, w.Code)
	assert.Nil(t, dataOf(t, w)["parentId"])

	assert.Equal(t, 404, perform(categoryRouter(user.ID+1), "PUT", path, `{"name":"x"}`).Code)
}

func TestCategoryHandler_DeleteNullifiesReferences(t *testing.T) {
	db := setupTestDB(t)
	user := mustUser(t, db, "ana@example.com")
	parent := mustCategory(t, db, user.ID, "Casa")
	child := models.Category{UserID: user.ID, Name: "Luz", ParentID: &parent.ID}
	require.NoError(t, db.Create(&child).Error)
	tx := mustTx(t, db, models.Transaction{UserID: user.ID, Amount: decimal.NewFromInt(80), Date: day(2024, 3, 3), CategoryID: &parent.ID})

	w := perform(categoryRouter(user.ID), "DELETE", fmt.Sprintf("/categories/%d", parent.ID), "")
	require.Equal(t, 200, w.Code, w.Body.String())

	var reloadedChild models.Category
	require.NoError(t, db.First(&reloadedChild, child.ID).Error)
	assert.Nil(t, reloadedChild.ParentID)

	var reloadedTx models.Transaction
	require.NoError(t, db.First(&reloadedTx, tx.ID).Error)
	assert.Nil(t, reloadedTx.CategoryID)
}
