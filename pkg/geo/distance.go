// Package geo 提供考勤使用的大圆距离计算。
package geo

import (
	"fmt"
	"math"

	"GeoAttend/pkg/errors"
)

// EarthRadiusMeters 地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// Point 经纬度坐标，值类型，不可变
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate 校验坐标范围，纬度 [-90,90]，经度 [-180,180]
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		p.Latitude < -90 || p.Latitude > 90 {
		return errors.InvalidInput.WithMessage(fmt.Sprintf("latitude must be between -90 and 90, got %v", p.Latitude))
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) ||
		p.Longitude < -180 || p.Longitude > 180 {
		return errors.InvalidInput.WithMessage(fmt.Sprintf("longitude must be between -180 and 180, got %v", p.Longitude))
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance Haversine 公式计算两点间的大圆距离（米）。
// 正弦项取平方、余弦项相乘，交换参数结果完全一致。
func Distance(a, b Point) float64 {
	latA, latB := radians(a.Latitude), radians(b.Latitude)
	dLat := latB - latA
	dLon := radians(b.Longitude) - radians(a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	// 浮点误差可能让 h 略超出 [0,1]，对跖点附近 asin 会得到 NaN
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// WithinRadius 判断 a 与 b 的距离是否不超过 radius（米）
func WithinRadius(a, b Point, radius float64) bool {
	return Distance(a, b) <= radius
}

// Round2 保留两位小数，用于响应展示
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
