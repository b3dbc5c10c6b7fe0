package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/utils"
)

// DateFormat 查询参数中的日期格式
const DateFormat = "2006-01-02"

// 分页缺省值
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ParseID 解析路径参数 id
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析正整数路径参数，失败时写出 400
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析可选的 ID 查询参数，参数缺省时返回 (nil, true)
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	raw := c.Query(paramName)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ParseQueryDateRange 解析 start_date 与 end_date，结束日期取当天最后一秒
func ParseQueryDateRange(c *gin.Context) (start, end *time.Time, ok bool) {
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(DateFormat, raw)
		if err != nil {
			BadRequest(c, "无效的开始日期格式")
			return nil, nil, false
		}
		start = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(DateFormat, raw)
		if err != nil {
			BadRequest(c, "无效的结束日期格式")
			return nil, nil, false
		}
		t = t.Add(24*time.Hour - time.Second)
		end = &t
	}
	return start, end, true
}

// BindPagination 读取 page 与 page_size，page_size 缺省时接受 limit
func BindPagination(c *gin.Context) utils.Pagination {
	p := utils.Pagination{
		Page:     queryInt(c, "page", DefaultPage),
		PageSize: queryInt(c, "page_size", 0),
	}
	if p.PageSize == 0 {
		p.PageSize = queryInt(c, "limit", DefaultPageSize)
	}
	p.NormalizeWithDefault(DefaultPageSize)
	return p
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// RequireUserAndParseID 当前用户与路径 id
func RequireUserAndParseID(c *gin.Context, resourceName string) (userID, resourceID int64, ok bool) {
	if userID, ok = RequireUserID(c); !ok {
		return 0, 0, false
	}
	if resourceID, ok = ParseID(c, resourceName); !ok {
		return 0, 0, false
	}
	return userID, resourceID, true
}

// RequireAdminAndParseID 当前管理员与路径 id
func RequireAdminAndParseID(c *gin.Context, resourceName string) (adminID, resourceID int64, ok bool) {
	if adminID, ok = RequireAdminID(c); !ok {
		return 0, 0, false
	}
	if resourceID, ok = ParseID(c, resourceName); !ok {
		return 0, 0, false
	}
	return adminID, resourceID, true
}
