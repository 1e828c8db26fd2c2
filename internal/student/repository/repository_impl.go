package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() studentdomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*studentdomain.Student, error) {
	var student studentdomain.Student
	err := db.WithContext(ctx).Where("id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, studentdomain.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *RepositoryImpl) FindInSchool(ctx context.Context, db *gorm.DB, id, schoolID snowflake.ID) (*studentdomain.Student, error) {
	student, err := r.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if student.SchoolID != schoolID {
		return nil, studentdomain.ErrSchoolMismatch
	}
	return student, nil
}

func (r *RepositoryImpl) ListByGradeSection(ctx context.Context, db *gorm.DB, schoolID snowflake.ID, grade, section string) ([]studentdomain.Student, error) {
	query := db.WithContext(ctx).
		Where("school_id = ? AND is_active = ?", schoolID, true)
	if grade = strings.TrimSpace(grade); grade != "" {
		query = query.Where("grade = ?", grade)
	}
	if section = strings.TrimSpace(section); section != "" {
		query = query.Where("section = ?", section)
	}

	var students []studentdomain.Student
	if err := query.Order("grade, section, first_name").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
