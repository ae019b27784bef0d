package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"GeoAttend/internal/attendance"
	"GeoAttend/pkg/geo"
)

func columnType(t *testing.T, m interface{}, field string) string {
	t.Helper()
	s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	f := s.LookUpField(field)
	require.NotNil(t, f, field)
	return string(f.DataType)
}

func TestCoordinateColumnsKeepFullPrecision(t *testing.T) {
	for _, field := range []string{"Latitude", "Longitude", "DistanceMeters"} {
		assert.Equal(t, "double precision", columnType(t, &Attendance{}, field), field)
	}
	for _, field := range []string{"Latitude", "Longitude", "RadiusMeters"} {
		assert.Equal(t, "double precision", columnType(t, &Location{}, field), field)
	}
}

func TestAttendanceRecordRoundTrip(t *testing.T) {
	center := geo.Point{Latitude: -6.2, Longitude: 106.816666}
	point := geo.Point{Latitude: -6.200123456789, Longitude: 106.816777777777}

	record := &attendance.Record{
		UserID:         10,
		ScheduleID:     1,
		Point:          point,
		DistanceMeters: geo.Distance(point, center),
		Status:         attendance.StatusPresent,
	}

	back := NewAttendance(record).ToRecord()
	assert.Equal(t, record.Point, back.Point)
	assert.Equal(t, record.DistanceMeters, geo.Distance(back.Point, center))
	assert.Equal(t, record.Status, back.Status)
}

func TestBaseModelColumns(t *testing.T) {
	s, err := schema.Parse(&Attendance{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	require.NotNil(t, s.PrioritizedPrimaryField)
	assert.Equal(t, "id", s.PrioritizedPrimaryField.DBName)
	assert.True(t, s.PrioritizedPrimaryField.AutoIncrement)

	created := s.LookUpField("CreatedAt")
	require.NotNil(t, created)
	assert.NotZero(t, created.AutoCreateTime)

	updated := s.LookUpField("UpdatedAt")
	require.NotNil(t, updated)
	assert.NotZero(t, updated.AutoUpdateTime)

	// 软删除列不出现在接口响应中
	deleted := s.LookUpField("DeletedAt")
	require.NotNil(t, deleted)
	assert.Equal(t, "-", deleted.StructField.Tag.Get("json"))
}
