package persistence

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/langchou/garage/internal/models"
)

// migration 把 from 版本的车辆数组转换为 from+1 版本
type migration struct {
	from  int
	apply func(cars json.RawMessage, now time.Time) (json.RawMessage, error)
}

var migrations = []migration{
	{from: 0, apply: migrateV0},
}

// migrate 依次执行迁移，直到当前版本
func migrate(version int, cars json.RawMessage, now time.Time) (json.RawMessage, error) {
	for _, m := range migrations {
		if m.from != version {
			continue
		}
		out, err := m.apply(cars, now)
		if err != nil {
			return nil, fmt.Errorf("migrate v%d: %w", m.from, err)
		}
		cars = out
		version = m.from + 1
	}
	if version != models.SchemaVersion {
		return nil, fmt.Errorf("no migration path to v%d from v%d", models.SchemaVersion, version)
	}
	return cars, nil
}

// legacyServiceRecord 第一代应用的保养记录
type legacyServiceRecord struct {
	ID          string                 `json:"id"`
	Date        string                 `json:"date"`
	Mileage     float64                `json:"mileage"`
	Type        models.MaintenanceType `json:"type"`
	Description string                 `json:"description"`
	Cost        float64                `json:"cost"`
}

// legacyVehicle 第一代应用的车辆：费用、保险和检验以扁平字段存放
type legacyVehicle struct {
	models.Vehicle

	InsuranceProvider         *string               `json:"insuranceProvider"`
	InsurancePolicyNumber     *string               `json:"insurancePolicyNumber"`
	InsuranceExpiryDate       *string               `json:"insuranceExpiryDate"`
	InsuranceCost             *float64              `json:"insuranceCost"`
	TechnicalInspectionExpiry *string               `json:"technicalInspectionExpiry"`
	RegistrationExpiry        *string               `json:"registrationExpiry"`
	FuelCosts                 *float64              `json:"fuelCosts"`
	MaintenanceCosts          *float64              `json:"maintenanceCosts"`
	RepairCosts               *float64              `json:"repairCosts"`
	LastServiceDate           *string               `json:"lastServiceDate"`
	NextServiceDate           *string               `json:"nextServiceDate"`
	NextServiceMileage        *float64              `json:"nextServiceMileage"`
	ServiceHistory            []legacyServiceRecord `json:"serviceHistory"`
}

const legacyNote = "Imported from legacy vehicle fields"

func migrateV0(raw json.RawMessage, now time.Time) (json.RawMessage, error) {
	var legacy []legacyVehicle
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("decode legacy cars: %w", err)
	}

	cars := make([]models.Vehicle, 0, len(legacy))
	for _, lv := range legacy {
		cars = append(cars, lv.upgrade(now))
	}
	return json.Marshal(cars)
}

// upgrade 把扁平字段转换为历史记录，追加在已有记录之后
func (lv legacyVehicle) upgrade(now time.Time) models.Vehicle {
	v := lv.Vehicle
	stamp := models.FormatDate(now)

	if present(lv.InsuranceProvider) || present(lv.InsuranceExpiryDate) {
		expiry := valueOr(lv.InsuranceExpiryDate, stamp)
		rec := models.InsuranceRecord{
			ID:           legacyID(v.ID, "insurance"),
			Provider:     valueOr(lv.InsuranceProvider, "Unknown"),
			PolicyNumber: lv.InsurancePolicyNumber,
			StartDate:    yearBefore(expiry, stamp),
			ExpiryDate:   expiry,
			Notes:        models.Ptr(legacyNote),
		}
		if lv.InsuranceCost != nil {
			rec.Cost = *lv.InsuranceCost
		}
		v.InsuranceHistory = append(v.InsuranceHistory, rec)
	}

	for _, insp := range []struct {
		kind   models.InspectionType
		expiry *string
	}{
		{models.InspectionTechnical, lv.TechnicalInspectionExpiry},
		{models.InspectionRegistration, lv.RegistrationExpiry},
	} {
		if !present(insp.expiry) {
			continue
		}
		v.InspectionHistory = append(v.InspectionHistory, models.InspectionRecord{
			ID:         legacyID(v.ID, "inspection", string(insp.kind)),
			Type:       insp.kind,
			Date:       yearBefore(*insp.expiry, stamp),
			ExpiryDate: models.Ptr(*insp.expiry),
			Result:     models.ResultPass,
			Notes:      models.Ptr(legacyNote),
		})
	}

	for _, cost := range []struct {
		kind   models.CostType
		label  string
		amount *float64
	}{
		{models.CostFuel, "fuel", lv.FuelCosts},
		{models.CostMaintenance, "maintenance", lv.MaintenanceCosts},
		{models.CostRepair, "repair", lv.RepairCosts},
	} {
		if cost.amount == nil || *cost.amount <= 0 {
			continue
		}
		v.RunningCosts = append(v.RunningCosts, models.RunningCostRecord{
			ID:          legacyID(v.ID, "cost", cost.label),
			Type:        cost.kind,
			Date:        stamp,
			Amount:      *cost.amount,
			Description: models.Ptr(fmt.Sprintf("Cumulative %s costs", cost.label)),
		})
	}

	for n, s := range lv.ServiceHistory {
		rec := models.MaintenanceRecord{
			ID:          s.ID,
			Date:        s.Date,
			Mileage:     s.Mileage,
			Type:        s.Type,
			Description: s.Description,
			Cost:        s.Cost,
		}
		if rec.ID == "" {
			rec.ID = legacyID(v.ID, "service", strconv.Itoa(n))
		}
		if rec.Type == "" {
			rec.Type = models.MaintenanceScheduled
		}
		v.MaintenanceHistory = append(v.MaintenanceHistory, rec)
	}

	if present(lv.LastServiceDate) || present(lv.NextServiceDate) || lv.NextServiceMileage != nil {
		v.MaintenanceHistory = attachSchedule(v, lv, stamp)
	}

	return v
}

// attachSchedule 把下次保养信息挂到最新的保养记录上，没有记录时新建一条
func attachSchedule(v models.Vehicle, lv legacyVehicle, stamp string) []models.MaintenanceRecord {
	history := v.MaintenanceHistory
	if len(history) == 0 {
		rec := models.MaintenanceRecord{
			ID:          legacyID(v.ID, "service"),
			Date:        valueOr(lv.LastServiceDate, stamp),
			Type:        models.MaintenanceScheduled,
			Description: "Service",
			Notes:       models.Ptr(legacyNote),
		}
		if v.CurrentMileage != nil {
			rec.Mileage = *v.CurrentMileage
		}
		history = []models.MaintenanceRecord{rec}
	}

	newest := &history[0]
	if newest.NextServiceDate == nil && present(lv.NextServiceDate) {
		newest.NextServiceDate = models.Ptr(*lv.NextServiceDate)
	}
	if newest.NextServiceMileage == nil && lv.NextServiceMileage != nil {
		newest.NextServiceMileage = models.Ptr(*lv.NextServiceMileage)
	}
	return history
}

// legacyID 迁移生成的记录 ID 只取决于车辆 ID 和来源字段，重复加载得到相同的 ID
func legacyID(vehicleID string, parts ...string) string {
	return "legacy-" + vehicleID + "-" + strings.Join(parts, "-")
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func valueOr(s *string, fallback string) string {
	if present(s) {
		return *s
	}
	return fallback
}

// yearBefore 旧数据只记录了到期日，生效日按一年有效期倒推
func yearBefore(expiry, fallback string) string {
	t, err := models.ParseDate(expiry)
	if err != nil {
		return fallback
	}
	return models.FormatDate(t.AddDate(-1, 0, 0))
}
