package inventory

import "github.com/vexeviet/seat-hold/internal/model"

// DefaultRoutes is the timetable the mock backend sells.
func DefaultRoutes() []model.Route {
	return []model.Route{
		{ID: "R1", Origin: "Hà Nội", Destination: "Hải Phòng", Operator: "Hoàng Long", DepartsAt: "07:00", Price: 250000},
		{ID: "R2", Origin: "Hà Nội", Destination: "Sa Pa", Operator: "Sao Việt", DepartsAt: "21:30", Price: 350000},
		{ID: "R3", Origin: "TP. Hồ Chí Minh", Destination: "Đà Lạt", Operator: "Phương Trang", DepartsAt: "22:00", Price: 300000},
		{ID: "R4", Origin: "Đà Nẵng", Destination: "Huế", Operator: "Hưng Long", DepartsAt: "08:15", Price: 120000},
	}
}
