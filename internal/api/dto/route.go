package dto

import "delivery-dispatch-service/internal/domain"

type CreateRouteRequest struct {
	Date     string  `json:"date"`
	Driver   string  `json:"driver"`
	OrderIDs []int64 `json:"order_ids"`
}

type ReorderRequest struct {
	StopIDs []int64 `json:"stop_ids"`
}

type CoordsResponse struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type StopResponse struct {
	StopID     int64           `json:"stop_id"`
	OrderID    int64           `json:"order_id"`
	ClientName string          `json:"client_name"`
	Address    string          `json:"address"`
	Seq        int             `json:"seq"`
	Status     string          `json:"status"`
	Coords     *CoordsResponse `json:"coords,omitempty"`
	MapsURL    string          `json:"maps_url,omitempty"`
}

type RouteResponse struct {
	RouteID int64          `json:"route_id"`
	Date    string         `json:"date"`
	Driver  string         `json:"driver"`
	Status  string         `json:"status"`
	Stops   []StopResponse `json:"stops"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

func FromRoute(route *domain.Route) RouteResponse {
	res := RouteResponse{
		RouteID: route.ID,
		Date:    route.Date.Format("2006-01-02"),
		Driver:  route.Driver,
		Status:  string(route.Status),
		Stops:   make([]StopResponse, 0, len(route.Stops)),
	}
	for _, s := range route.Stops {
		stop := StopResponse{
			StopID:     s.ID,
			OrderID:    s.OrderID,
			ClientName: s.ClientName,
			Address:    s.Address,
			Seq:        s.Seq,
			Status:     string(s.Status),
			MapsURL:    s.MapsURL(),
		}
		if s.Coords != nil {
			stop.Coords = &CoordsResponse{Lon: s.Coords.Lon, Lat: s.Coords.Lat}
		}
		res.Stops = append(res.Stops, stop)
	}
	return res
}
