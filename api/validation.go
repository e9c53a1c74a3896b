package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"finplan/config"
	"finplan/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 字段错误使用 JSON / query 名称作为 key
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// fieldMessage 单个校验错误的提示
func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter pelo menos %s caracteres", e.Param())
		}
		return fmt.Sprintf("Deve ser no mínimo %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter no máximo %s caracteres", e.Param())
		}
		return fmt.Sprintf("Deve ser no máximo %s", e.Param())
	case "len":
		return fmt.Sprintf("Deve ter %s caracteres", e.Param())
	case "gt":
		return fmt.Sprintf("Deve ser maior que %s", e.Param())
	case "gte":
		return fmt.Sprintf("Deve ser maior ou igual a %s", e.Param())
	case "lte":
		return fmt.Sprintf("Deve ser menor ou igual a %s", e.Param())
	case "oneof":
		return fmt.Sprintf("Deve ser um de: %s", e.Param())
	}
	return "Valor inválido"
}

// bindFailed 将绑定错误写为 400，校验错误带字段信息
func bindFailed(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fieldMessage(fe)
		}
		ValidationFailed(c, "Dados inválidos", fields)
		return
	}
	BadRequest(c, config.SafeErrorMessage(err, "Dados inválidos"))
}

// parseID 解析路径中的 ID 参数
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ValidationFailed(c, "ID inválido", map[string]string{name: "ID inválido"})
		return 0, false
	}
	return uint(id), true
}

// PeriodQuery ?month=&year=，缺省为当前月份
type PeriodQuery struct {
	Month int `form:"month"`
	Year  int `form:"year"`
}

// bindPeriod 读取并校验月份参数
func bindPeriod(c *gin.Context) (int, int, bool) {
	var q PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return 0, 0, false
	}
	month, year := models.CurrentPeriod()
	if q.Month != 0 {
		month = q.Month
	}
	if q.Year != 0 {
		year = q.Year
	}
	if !models.ValidPeriod(month, year) {
		ValidationFailed(c, "Mês ou ano inválido", map[string]string{
			"month": "Deve estar entre 1 e 12",
			"year":  fmt.Sprintf("Deve estar entre %d e %d", models.MinYear, models.MaxYear),
		})
		return 0, 0, false
	}
	return month, year, true
}

// parseDate 接受 2006-01-02 或 RFC3339；带时区偏移的时间统一转为本地时间，月份窗口按本地时间划分
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(time.Local), nil
}
