package model

// Course 课程
type Course struct {
	BaseModel
	CourseName   string `gorm:"type:varchar(255);not null" json:"course_name"`
	CourseCode   string `gorm:"type:varchar(64);uniqueIndex;not null" json:"course_code"`
	LecturerName string `gorm:"type:varchar(255);not null;default:''" json:"lecturer_name"`
}

func (Course) TableName() string {
	return "courses"
}
