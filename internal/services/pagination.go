package services

import "github.com/Gopher0727/StarterPacks/utils"

// Page 是所有列表接口统一的分页信封
type Page[T any] struct {
	Items        []T   `json:"items"`
	Total        int64 `json:"total"`
	Page         int   `json:"page"`
	TotalPages   int64 `json:"totalPages"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// Assemble 组装一页结果；items 永不为 nil，JSON 始终编码为数组
func Assemble[T any](items []T, total int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:        items,
		Total:        total,
		Page:         page,
		TotalPages:   totalPages(total, pageSize),
		ItemsPerPage: pageSize,
	}
}

func totalPages(total int64, pageSize int) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return utils.CeilDiv(total, int64(pageSize))
}
