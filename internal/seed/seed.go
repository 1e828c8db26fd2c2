package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/schoolworks/feeledger/internal/academic"
	"github.com/schoolworks/feeledger/internal/config"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
	schooldomain "github.com/schoolworks/feeledger/internal/school/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	"gorm.io/gorm"
)

const (
	defaultSchoolName = "Demo Public School"
	defaultSchoolCode = "demo"
)

var defaultStudents = []struct {
	AdmissionNo   string
	FirstName     string
	LastName      string
	Grade         string
	Section       string
	GuardianName  string
	GuardianPhone string
}{
	{"ADM-001", "Aarav", "Sharma", "5", "A", "Rohit Sharma", "+91-9800000001"},
	{"ADM-002", "Diya", "Patel", "5", "A", "Mehul Patel", "+91-9800000002"},
	{"ADM-003", "Kabir", "Singh", "5", "B", "Harpreet Singh", "+91-9800000003"},
}

// EnsureDefaultSchool seeds a demo school, a handful of students and an
// active fee structure for the current academic year. Safe to run on
// every startup.
func EnsureDefaultSchool(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		school, err := ensureSchoolTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureStudentsTx(ctx, tx, node, school.ID); err != nil {
			return err
		}
		year := academic.Current(time.Now().UTC(), cfg.AcademicYearStartMonth)
		return ensureFeeStructureTx(ctx, tx, node, school.ID, year, cfg.DefaultDueDay)
	})
}

func ensureSchoolTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (schooldomain.School, error) {
	var school schooldomain.School
	err := tx.WithContext(ctx).Where("code = ?", defaultSchoolCode).First(&school).Error
	if err == nil {
		return school, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return school, err
	}
	school = schooldomain.School{
		ID:        node.Generate(),
		Name:      defaultSchoolName,
		Code:      defaultSchoolCode,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&school).Error; err != nil {
		return school, err
	}
	return school, nil
}

func ensureStudentsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, schoolID snowflake.ID) error {
	for _, s := range defaultStudents {
		var existing studentdomain.Student
		err := tx.WithContext(ctx).
			Where("school_id = ? AND admission_no = ?", schoolID, s.AdmissionNo).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		student := studentdomain.Student{
			ID:            node.Generate(),
			SchoolID:      schoolID,
			AdmissionNo:   s.AdmissionNo,
			FirstName:     s.FirstName,
			LastName:      s.LastName,
			Grade:         s.Grade,
			Section:       s.Section,
			GuardianName:  s.GuardianName,
			GuardianPhone: s.GuardianPhone,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&student).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureFeeStructureTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, schoolID snowflake.ID, year string, dueDay int) error {
	var existing feestructuredomain.FeeStructure
	err := tx.WithContext(ctx).
		Where("school_id = ? AND grade = ? AND academic_year = ? AND is_active = ?", schoolID, "5", year, true).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	structure := feestructuredomain.FeeStructure{
		ID:            node.Generate(),
		SchoolID:      schoolID,
		Grade:         "5",
		AcademicYear:  year,
		MonthlyAmount: 100000, // minor units
		DueDay:        dueDay,
		Components: []feestructuredomain.FeeComponent{
			{FeeType: "tuition", Amount: 100000, OneTime: false},
			{FeeType: "admission", Amount: 50000, OneTime: true},
			{FeeType: "annual_charges", Amount: 25000, OneTime: true},
		},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&structure).Error
}
