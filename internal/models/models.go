package models

// AllModels 返回需要自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Review{},
		&ReviewVote{},
		&ReviewReport{},
		&ReviewAudit{},
		&SiteSettings{},
		&StoreOwner{},
	}
}
