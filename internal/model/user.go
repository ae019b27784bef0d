package model

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleStudent UserRole = "student"
)

// User 用户模型，identity_number 为学号/工号，用于登录
type User struct {
	BaseModel
	Name           string   `gorm:"type:varchar(255);not null" json:"name"`
	IdentityNumber string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"identity_number"`
	Email          string   `gorm:"type:varchar(255);not null;default:''" json:"email"`
	PasswordHash   string   `gorm:"type:varchar(255);not null" json:"-"`
	Role           UserRole `gorm:"type:varchar(16);not null;default:'student';index:idx_users_role" json:"role"`

	Classes []ClassRoom `gorm:"many2many:class_users;joinForeignKey:UserID;joinReferences:ClassID" json:"classes,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
