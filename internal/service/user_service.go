package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/dto"
	"github.com/campushub/activity-portal-api/internal/models"
	"github.com/campushub/activity-portal-api/internal/repository"
	"github.com/campushub/activity-portal-api/internal/scope"
)

// ErrUserNotFound indicates the directory entry could not be located.
var ErrUserNotFound = errors.New("user not found")

// ErrUserNotInScope indicates the user exists but falls outside the
// requester's visibility. Handlers respond to it exactly like
// ErrUserNotFound.
var ErrUserNotInScope = errors.New("user not in requester scope")

// ErrUserHasActivities blocks deletion of a user that still owns activity
// records, preventing dangling references.
var ErrUserHasActivities = errors.New("user has activity records")

// ErrInvalidRoleFilter indicates a role listing asked for a role outside the
// requester's reach.
var ErrInvalidRoleFilter = errors.New("invalid role filter")

// UserService exposes directory reads for teachers and full CRUD for
// superadmins, all narrowed through the scope resolver.
type UserService interface {
	List(ctx context.Context, requester scope.Identity) ([]dto.UserResponse, error)
	ListByRole(ctx context.Context, requester scope.Identity, role string) ([]dto.UserResponse, error)
	Get(ctx context.Context, requester scope.Identity, id uint) (dto.UserResponse, error)
	Update(ctx context.Context, requester scope.Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, requester scope.Identity, id uint) error
}

type userService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	resolver   *scope.Resolver
	validator  *validator.Validate
	audit      AuditRecorder
	logger     zerolog.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users repository.UserRepository, activities repository.ActivityRepository, resolver *scope.Resolver, validate *validator.Validate, audit AuditRecorder, logger zerolog.Logger) UserService {
	return &userService{
		users:      users,
		activities: activities,
		resolver:   resolver,
		validator:  validate,
		audit:      audit,
		logger:     logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, requester scope.Identity) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx, repository.UserFilter{Sort: "created_at DESC, id DESC"})
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) ListByRole(ctx context.Context, requester scope.Identity, role string) ([]dto.UserResponse, error) {
	parsed, err := models.ParseRole(role)
	if err != nil || parsed == models.RoleSuperadmin {
		return nil, ErrInvalidRoleFilter
	}

	filter := repository.UserFilter{Role: &parsed}

	if requester.Role == models.RoleTeacher {
		// Teacher visibility over the directory covers only students in the
		// teacher's own scope.
		if parsed != models.RoleStudent {
			return nil, ErrInvalidRoleFilter
		}
		filter.Department = requester.Department
		filter.Class = requester.Class
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) Get(ctx context.Context, requester scope.Identity, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if requester.Role == models.RoleTeacher && user.IsStudent() {
		visible, err := s.resolver.Resolve(ctx, requester)
		if err != nil {
			return dto.UserResponse{}, err
		}
		if !visible.Contains(user.ID) {
			return dto.UserResponse{}, ErrUserNotInScope
		}
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, requester scope.Identity, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	role := user.Role
	if payload.Role != nil {
		role, err = models.ParseRole(*payload.Role)
		if err != nil {
			return dto.UserResponse{}, err
		}
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*payload.Email))
	}
	if payload.Role != nil {
		updates["role"] = role
	}
	if payload.Department != nil {
		updates["department"] = strings.TrimSpace(*payload.Department)
	}
	if payload.Class != nil {
		updates["class"] = strings.TrimSpace(*payload.Class)
	}
	if payload.Semester != nil {
		updates["semester"] = *payload.Semester
	}
	if payload.RollNumber != nil {
		updates["roll_number"] = strings.TrimSpace(*payload.RollNumber)
	}

	// Student-only attributes are cleared whenever the effective role is not
	// student, even if the payload supplied them.
	if role != models.RoleStudent {
		updates["semester"] = nil
		updates["roll_number"] = ""
	}

	if len(updates) == 0 {
		return dto.NewUserResponse(user), nil
	}

	updated, err := s.users.Update(ctx, id, updates)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if s.audit != nil {
		entityID := updated.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    requester.ID,
			ActorRole:  requester.Role,
			Action:     "user.updated",
			EntityType: "user",
			EntityID:   &entityID,
			Metadata:   map[string]interface{}{"role": updated.Role.String()},
		})
	}

	s.logger.Info().Uint("user_id", updated.ID).Msg("user updated")

	return dto.NewUserResponse(updated), nil
}

// Delete removes a directory entry. Deletion is blocked while the user still
// owns activity records so no activity is left pointing at a missing student.
func (s *userService) Delete(ctx context.Context, requester scope.Identity, id uint) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	owned, err := s.activities.CountByStudent(ctx, user.ID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return ErrUserHasActivities
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if s.audit != nil {
		entityID := user.ID
		_ = s.audit.Record(ctx, AuditEntry{
			ActorID:    requester.ID,
			ActorRole:  requester.Role,
			Action:     "user.deleted",
			EntityType: "user",
			EntityID:   &entityID,
			Metadata:   map[string]interface{}{"email": user.Email},
		})
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user deleted")

	return nil
}
