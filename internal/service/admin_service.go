package service

import (
	"context"
	"time"

	"chatdesk-go/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminService 接口定义了管理员相关的业务操作。
type AdminService interface {
	ListUsers(ctx context.Context, page, size int) (*UserListResponse, error)
}

type adminService struct {
	userRepo repository.UserRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

// ListUsers 以分页的形式返回用户列表，page 从 1 开始。
func (s *adminService) ListUsers(ctx context.Context, page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	users, total, err := s.userRepo.FindWithPagination(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}

	content := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		content = append(content, UserDetailResponse{
			UserID:    u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (int(total) + size - 1) / size
	}
	return &UserListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}
