package utils

// MaxPageSize 单页条数上限
const MaxPageSize = 100

// Pagination 分页参数与结果总数
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// NormalizeWithDefault 页码至少为 1，页大小缺省时取 defaultSize 且不超过 MaxPageSize
func (p *Pagination) NormalizeWithDefault(defaultSize int) {
	p.Page = max(p.Page, 1)
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	p.PageSize = min(p.PageSize, MaxPageSize)
}

// GetOffset 当前页的起始偏移
func (p *Pagination) GetOffset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// GetTotalPages 按 Total 计算总页数
func (p *Pagination) GetTotalPages() int {
	if p.Total <= 0 || p.PageSize <= 0 {
		return 0
	}
	size := int64(p.PageSize)
	return int((p.Total + size - 1) / size)
}
