package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campushub/activity-portal-api/internal/models"
)

// UserFilter narrows directory listings.
type UserFilter struct {
	Role       *models.Role
	Department string
	Class      string
	Semester   *int
	Sort       string
}

// UserRepository provides access to the user directory. Its ListStudentIDs
// method doubles as the scope resolver's student directory.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	ListStudentIDs(ctx context.Context, department, class string) ([]uint, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	if filter.Class != "" {
		query = query.Where("class = ?", filter.Class)
	}

	if filter.Semester != nil {
		query = query.Where("semester = ?", *filter.Semester)
	}

	sort := filter.Sort
	if sort == "" {
		sort = "name ASC, id ASC"
	}

	var users []models.User
	if err := query.Order(sort).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) ListStudentIDs(ctx context.Context, department, class string) ([]uint, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Where("department = ?", department)

	if class != "" {
		query = query.Where("class = ?", class)
	}

	var ids []uint
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.User, error) {
	tx := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id)
	if err := tx.Updates(updates).Error; err != nil {
		return models.User{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
