package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/langchou/garage/internal/models"
	"github.com/langchou/garage/internal/store"
)

// ExpiringSoonDays 距到期不超过该天数视为即将到期
const ExpiringSoonDays = 30

// ExpiryStatus 到期状态
type ExpiryStatus string

const (
	StatusExpired      ExpiryStatus = "expired"
	StatusExpiringSoon ExpiryStatus = "expiring_soon"
	StatusValid        ExpiryStatus = "valid"
)

// Expiry 到期信息
type Expiry struct {
	Date          string       `json:"date"`
	DaysRemaining int          `json:"daysRemaining"`
	Status        ExpiryStatus `json:"status"`
}

// CostSlice 单个费用类别的占比
type CostSlice struct {
	Type       models.CostType `json:"type"`
	Amount     float64         `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// CostBreakdown 按类别汇总的费用
type CostBreakdown struct {
	Totals map[models.CostType]float64 `json:"totals"`
	Total  float64                     `json:"total"`
	Slices []CostSlice                 `json:"slices"`
}

// ServiceProjection 下次保养预估
type ServiceProjection struct {
	RecordID           string   `json:"recordId"`
	LastServiceDate    string   `json:"lastServiceDate"`
	NextServiceDate    *string  `json:"nextServiceDate,omitempty"`
	NextServiceMileage *float64 `json:"nextServiceMileage,omitempty"`
	MileageRemaining   *float64 `json:"mileageRemaining,omitempty"`
	Due                *Expiry  `json:"due,omitempty"`
}

// Overview 车辆概览
type Overview struct {
	VehicleID        string                           `json:"vehicleId"`
	Insurance        *Expiry                          `json:"insurance,omitempty"`
	Inspections      map[models.InspectionType]Expiry `json:"inspections"`
	NextService      *ServiceProjection               `json:"nextService,omitempty"`
	MaintenanceSpend float64                          `json:"maintenanceSpend"`
	Costs            CostBreakdown                    `json:"costs"`
}

// VehicleSource 按 ID 读取车辆
type VehicleSource interface {
	VehicleByID(id string) (*models.Vehicle, bool)
}

// Insights 基于车辆历史记录的只读统计
type Insights struct {
	vehicles VehicleSource
	now      func() time.Time
}

// NewInsights 创建统计服务
func NewInsights(vehicles VehicleSource) *Insights {
	return &Insights{vehicles: vehicles, now: time.Now}
}

// WithClock 替换时钟
func (i *Insights) WithClock(now func() time.Time) *Insights {
	i.now = now
	return i
}

func (i *Insights) vehicle(id string) (*models.Vehicle, error) {
	v, ok := i.vehicles.VehicleByID(id)
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, store.ErrNotFound)
	}
	return v, nil
}

// CostBreakdown 车辆费用按类别汇总
func (i *Insights) CostBreakdown(vehicleID string) (*CostBreakdown, error) {
	v, err := i.vehicle(vehicleID)
	if err != nil {
		return nil, err
	}
	b := BreakdownOf(v.RunningCosts)
	return &b, nil
}

// SortedCosts 车辆费用按日期从新到旧排列
func (i *Insights) SortedCosts(vehicleID string) ([]models.RunningCostRecord, error) {
	v, err := i.vehicle(vehicleID)
	if err != nil {
		return nil, err
	}
	return SortCosts(v.RunningCosts), nil
}

// Overview 车辆概览：保险、检验到期情况，下次保养，保养总花费
func (i *Insights) Overview(vehicleID string) (*Overview, error) {
	v, err := i.vehicle(vehicleID)
	if err != nil {
		return nil, err
	}
	now := i.now()

	o := &Overview{
		VehicleID:   v.ID,
		Inspections: make(map[models.InspectionType]Expiry),
		Costs:       BreakdownOf(v.RunningCosts),
	}

	if ins, ok := latestInsurance(v.InsuranceHistory); ok {
		if e, err := ExpiryOf(ins.ExpiryDate, now); err == nil {
			o.Insurance = &e
		}
	}

	latest := make(map[models.InspectionType]time.Time)
	for _, r := range v.InspectionHistory {
		if r.ExpiryDate == nil {
			continue
		}
		t, err := models.ParseDate(*r.ExpiryDate)
		if err != nil {
			continue
		}
		if prev, ok := latest[r.Type]; ok && !t.After(prev) {
			continue
		}
		latest[r.Type] = t
		o.Inspections[r.Type] = expiryAt(*r.ExpiryDate, t, now)
	}

	for _, r := range v.MaintenanceHistory {
		o.MaintenanceSpend += r.Cost
	}
	o.NextService = projectService(v, now)

	return o, nil
}

// BreakdownOf 按类别汇总费用，只保留金额大于零的类别，金额大的在前
func BreakdownOf(costs []models.RunningCostRecord) CostBreakdown {
	b := CostBreakdown{Totals: make(map[models.CostType]float64), Slices: []CostSlice{}}
	for _, c := range costs {
		b.Totals[c.Type] += c.Amount
		b.Total += c.Amount
	}
	if b.Total <= 0 {
		return b
	}

	for _, t := range models.CostTypes {
		if amount := b.Totals[t]; amount > 0 {
			b.Slices = append(b.Slices, CostSlice{Type: t, Amount: amount, Percentage: amount / b.Total * 100})
		}
	}
	sort.SliceStable(b.Slices, func(x, y int) bool {
		return b.Slices[x].Amount > b.Slices[y].Amount
	})
	return b
}

// SortCosts 返回按日期从新到旧排序的副本，无法解析日期的记录排在最后
func SortCosts(costs []models.RunningCostRecord) []models.RunningCostRecord {
	type dated struct {
		rec models.RunningCostRecord
		at  time.Time
		ok  bool
	}
	items := make([]dated, len(costs))
	for n, c := range costs {
		t, err := models.ParseDate(c.Date)
		items[n] = dated{rec: c.Clone(), at: t, ok: err == nil}
	}

	sort.SliceStable(items, func(x, y int) bool {
		a, b := items[x], items[y]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.at.After(b.at)
	})

	out := make([]models.RunningCostRecord, len(items))
	for n, it := range items {
		out[n] = it.rec
	}
	return out
}

// ExpiryOf 计算到期状态，剩余天数向上取整
func ExpiryOf(date string, now time.Time) (Expiry, error) {
	t, err := models.ParseDate(date)
	if err != nil {
		return Expiry{}, err
	}
	return expiryAt(date, t, now), nil
}

func expiryAt(date string, t, now time.Time) Expiry {
	days := int(math.Ceil(t.Sub(now).Hours() / 24))
	status := StatusValid
	switch {
	case days < 0:
		status = StatusExpired
	case days <= ExpiringSoonDays:
		status = StatusExpiringSoon
	}
	return Expiry{Date: date, DaysRemaining: days, Status: status}
}

// latestInsurance 生效日期最晚的保单
func latestInsurance(history []models.InsuranceRecord) (models.InsuranceRecord, bool) {
	var (
		best   models.InsuranceRecord
		bestAt time.Time
		found  bool
	)
	for _, r := range history {
		t, err := models.ParseDate(r.StartDate)
		if err != nil {
			continue
		}
		if !found || t.After(bestAt) {
			best, bestAt, found = r, t, true
		}
	}
	return best, found
}

// projectService 取带有下次保养信息的最新保养记录
func projectService(v *models.Vehicle, now time.Time) *ServiceProjection {
	var (
		best   *models.MaintenanceRecord
		bestAt time.Time
	)
	for n := range v.MaintenanceHistory {
		r := &v.MaintenanceHistory[n]
		if r.NextServiceDate == nil && r.NextServiceMileage == nil {
			continue
		}
		t, err := models.ParseDate(r.Date)
		if err != nil {
			continue
		}
		if best == nil || t.After(bestAt) {
			best, bestAt = r, t
		}
	}
	if best == nil {
		return nil
	}

	p := &ServiceProjection{
		RecordID:           best.ID,
		LastServiceDate:    best.Date,
		NextServiceDate:    best.NextServiceDate,
		NextServiceMileage: best.NextServiceMileage,
	}
	if best.NextServiceMileage != nil && v.CurrentMileage != nil {
		remaining := *best.NextServiceMileage - *v.CurrentMileage
		p.MileageRemaining = &remaining
	}
	if best.NextServiceDate != nil {
		if e, err := ExpiryOf(*best.NextServiceDate, now); err == nil {
			p.Due = &e
		}
	}
	return p
}
