package client

import (
	"encoding/json"
	"fmt"
)

// ListResult es la forma única de lista del lado cliente, venga el envelope
// que venga del servidor.
type ListResult[T any] struct {
	Items      []T
	Page       int
	Limit      int
	TotalPages int
	TotalCount int
}

// IsEmpty decide por items, no por totalPages.
func (r ListResult[T]) IsEmpty() bool { return len(r.Items) == 0 }

type wireList[T any] struct {
	Data []T `json:"data"`
	Meta *struct {
		CurrentPage  int `json:"currentPage"`
		TotalPages   int `json:"totalPages"`
		TotalCount   int `json:"totalCount"`
		ItemsPerPage int `json:"itemsPerPage"`
	} `json:"meta"`
	Pagination *struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		TotalPages int `json:"totalPages"`
		TotalCount int `json:"totalCount"`
	} `json:"pagination"`
}

// DecodeList acepta {data, meta} y {data, pagination}.
func DecodeList[T any](raw []byte) (ListResult[T], error) {
	var w wireList[T]
	if err := json.Unmarshal(raw, &w); err != nil {
		return ListResult[T]{}, fmt.Errorf("client: decode list: %w", err)
	}

	out := ListResult[T]{Items: w.Data}
	switch {
	case w.Meta != nil:
		out.Page = w.Meta.CurrentPage
		out.Limit = w.Meta.ItemsPerPage
		out.TotalPages = w.Meta.TotalPages
		out.TotalCount = w.Meta.TotalCount
	case w.Pagination != nil:
		out.Page = w.Pagination.Page
		out.Limit = w.Pagination.Limit
		out.TotalPages = w.Pagination.TotalPages
		out.TotalCount = w.Pagination.TotalCount
	}

	if out.Items == nil {
		out.Items = []T{}
	}
	if out.Page < 1 {
		out.Page = 1
	}
	// 0 o ausente: una sola página.
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}
	if out.TotalCount < len(out.Items) {
		out.TotalCount = len(out.Items)
	}
	return out, nil
}
