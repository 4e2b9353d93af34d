package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/nim"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Page
	Search  string
	Program string
	Status  string
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByNIM(ctx context.Context, nim string) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	Update(ctx context.Context, nim string, updates map[string]interface{}) (models.Student, error)
	Delete(ctx context.Context, nim string) error
	EmailTaken(ctx context.Context, email, exceptNIM string) (bool, error)
	IdentifiersWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByNIM(ctx context.Context, nim string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("nim = ?", nim).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR nim LIKE ?", like, like, like)
	}

	if filter.Program != "" {
		query = query.Where("LOWER(program) LIKE ?", "%"+strings.ToLower(filter.Program)+"%")
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := paginate(query.Order("nim ASC"), filter.Page).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) Update(ctx context.Context, nim string, updates map[string]interface{}) (models.Student, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("nim = ?", nim).
		Updates(updates)
	if result.Error != nil {
		return models.Student{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Student{}, gorm.ErrRecordNotFound
	}

	return r.GetByNIM(ctx, nim)
}

// Delete removes the student and its enrollments in one transaction. The same
// transaction raises the nim_sequences mark for the student's pair, so the
// identifier is retired together with the row.
func (r *studentRepository) Delete(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_nim = ?", identifier).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		result := tx.Where("nim = ?", identifier).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		id, err := nim.Parse(identifier)
		if err != nil {
			return err
		}
		return raiseSequence(tx, id, time.Now())
	})
}

func (r *studentRepository) EmailTaken(ctx context.Context, email, exceptNIM string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if exceptNIM != "" {
		query = query.Where("nim <> ?", exceptNIM)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepository) IdentifiersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	return identifiersWithPrefix(r.db.WithContext(ctx), prefix)
}

func identifiersWithPrefix(db *gorm.DB, prefix string) ([]string, error) {
	var identifiers []string
	if err := db.Model(&models.Student{}).Where("nim LIKE ?", prefix+"%").Pluck("nim", &identifiers).Error; err != nil {
		return nil, err
	}
	return identifiers, nil
}
