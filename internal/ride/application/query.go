package application

import (
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

const (
	FindRideQueryName    = "FindRide"
	SearchRidesQueryName = "SearchRides"
)

type FindRideData struct {
	RideID string
}

type findRideQuery struct {
	data FindRideData
}

func (q findRideQuery) QueryName() string     { return FindRideQueryName }
func (q findRideQuery) Payload() FindRideData { return q.data }

func NewFindRideQuery(data FindRideData) pkgDomain.Query[FindRideData] {
	return findRideQuery{data: data}
}

type SearchRidesData struct {
	Criteria domain.SearchCriteria
}

type searchRidesQuery struct {
	data SearchRidesData
}

func (q searchRidesQuery) QueryName() string        { return SearchRidesQueryName }
func (q searchRidesQuery) Payload() SearchRidesData { return q.data }

func NewSearchRidesQuery(data SearchRidesData) pkgDomain.Query[SearchRidesData] {
	return searchRidesQuery{data: data}
}
