// internal/domain/customer/dto.go
package customer

import "time"

type CreateCustomerRequest struct {
	Name       string   `json:"name" binding:"max=255"`
	FirstName  string   `json:"firstName" binding:"max=100"`
	LastName   string   `json:"lastName" binding:"max=100"`
	Email      string   `json:"email" binding:"omitempty,email,max=255"`
	Phone      string   `json:"phone" binding:"max=30"`
	Address    string   `json:"address" binding:"max=500"`
	Status     string   `json:"status" binding:"max=30"`
	AssignedTo *int64   `json:"assigned_to"`
	Notes      string   `json:"notes"`
	Tags       []string `json:"tags"`
}

// UpdateCustomerRequest carries only the fields the caller wants to change.
// UpdatedAt, when supplied, is the value the caller last read and is used
// for the optimistic-concurrency check.
type UpdateCustomerRequest struct {
	Name          *string    `json:"name" binding:"omitempty,max=255"`
	FirstName     *string    `json:"firstName" binding:"omitempty,max=100"`
	LastName      *string    `json:"lastName" binding:"omitempty,max=100"`
	Email         *string    `json:"email" binding:"omitempty,max=255"`
	Phone         *string    `json:"phone" binding:"omitempty,max=30"`
	Address       *string    `json:"address" binding:"omitempty,max=500"`
	Status        *string    `json:"status" binding:"omitempty,max=30"`
	AssignedTo    *int64     `json:"assigned_to"`
	ClearAssignee bool       `json:"clear_assignee"`
	Notes         *string    `json:"notes"`
	Tags          []string   `json:"tags"`
	Archived      *bool      `json:"archived"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type ListFilters struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Status          string `form:"status"`
	AssignedTo      *int64 `form:"assigned_to"`
	Search          string `form:"search"`
	IncludeArchived bool   `form:"include_archived"`
	SortBy          string `form:"sort_by"`
	SortOrder       string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type ListResponse struct {
	Customers  []Customer `json:"customers"`
	Pagination Pagination `json:"pagination"`
}

type BulkDeleteRequest struct {
	CustomerIDs []int64 `json:"customerIds" binding:"required,min=1"`
}

type BulkDeleteResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// ImportRecord is a normalized row ready for batched insertion. It is the
// shape shared by the file-upload pipeline and the pre-parsed JSON bulk
// upload endpoint.
type ImportRecord struct {
	Name       string `json:"name"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	AssignedTo *int64 `json:"assigned_to"`
	Notes      string `json:"notes"`
}

type BulkUploadRequest struct {
	Customers []ImportRecord `json:"customers" binding:"required,min=1"`
	BatchSize int            `json:"batchSize"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Phone   string `json:"phone" binding:"max=30"`
	Message string `json:"message" binding:"max=5000"`
}
