package model

// Location 考勤地点，radius_meters 为允许的打卡半径
type Location struct {
	BaseModel
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Latitude     float64 `gorm:"type:double precision;not null" json:"latitude"`
	Longitude    float64 `gorm:"type:double precision;not null" json:"longitude"`
	RadiusMeters float64 `gorm:"type:double precision;not null" json:"radius_meters"`
}

func (Location) TableName() string {
	return "locations"
}
