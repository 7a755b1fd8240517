package models

import "encoding/json"

// RecordKind 历史记录类别
type RecordKind string

const (
	KindInsurance   RecordKind = "insurance"
	KindInspection  RecordKind = "inspection"
	KindRunningCost RecordKind = "running_cost"
	KindMaintenance RecordKind = "maintenance"
)

// Record 所有历史记录的共同点：车辆内唯一的 ID
type Record interface {
	RecordID() string
}

// InsuranceRecord 保险记录
type InsuranceRecord struct {
	ID           string  `json:"id" validate:"required"`
	Provider     string  `json:"provider" validate:"required"`
	PolicyNumber *string `json:"policyNumber,omitempty"`
	StartDate    string  `json:"startDate" validate:"required,isodate"`
	ExpiryDate   string  `json:"expiryDate" validate:"required,isodate"`
	Cost         float64 `json:"cost" validate:"gte=0"`
	CoverageType *string `json:"coverageType,omitempty"` // comprehensive, third-party
	Notes        *string `json:"notes,omitempty"`
}

func (r InsuranceRecord) RecordID() string { return r.ID }

// Clone 深拷贝
func (r InsuranceRecord) Clone() InsuranceRecord {
	r.PolicyNumber = clonePtr(r.PolicyNumber)
	r.CoverageType = clonePtr(r.CoverageType)
	r.Notes = clonePtr(r.Notes)
	return r
}

// InspectionType 检验类型
type InspectionType string

const (
	InspectionTechnical    InspectionType = "technical"
	InspectionRegistration InspectionType = "registration"
	InspectionEmissions    InspectionType = "emissions"
	InspectionSafety       InspectionType = "safety"
	InspectionCustom       InspectionType = "custom"
	InspectionITP          InspectionType = "ITP"
)

// InspectionResult 检验结果
type InspectionResult string

const (
	ResultPass    InspectionResult = "pass"
	ResultFail    InspectionResult = "fail"
	ResultPending InspectionResult = "pending"
)

// InspectionRecord 检验记录
type InspectionRecord struct {
	ID         string           `json:"id" validate:"required"`
	Type       InspectionType   `json:"type" validate:"required,oneof=technical registration emissions safety custom ITP"`
	Date       string           `json:"date" validate:"required,isodate"`
	ExpiryDate *string          `json:"expiryDate,omitempty" validate:"omitempty,isodate"` // 下次检验截止日期
	Result     InspectionResult `json:"result" validate:"required,oneof=pass fail pending"`
	Mileage    *float64         `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Cost       *float64         `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Location   *string          `json:"location,omitempty"` // 检验站
	Notes      *string          `json:"notes,omitempty"`
}

func (r InspectionRecord) RecordID() string { return r.ID }

// Clone 深拷贝
func (r InspectionRecord) Clone() InspectionRecord {
	r.ExpiryDate = clonePtr(r.ExpiryDate)
	r.Mileage = clonePtr(r.Mileage)
	r.Cost = clonePtr(r.Cost)
	r.Location = clonePtr(r.Location)
	r.Notes = clonePtr(r.Notes)
	return r
}

// CostType 费用类别
type CostType string

const (
	CostFuel        CostType = "fuel"
	CostMaintenance CostType = "maintenance"
	CostRepair      CostType = "repair"
	CostInsurance   CostType = "insurance"
	CostTax         CostType = "tax"
	CostParking     CostType = "parking"
	CostToll        CostType = "toll"
	CostOther       CostType = "other"
)

// CostTypes 全部费用类别，按固定顺序
var CostTypes = []CostType{
	CostFuel, CostMaintenance, CostRepair, CostInsurance,
	CostTax, CostParking, CostToll, CostOther,
}

// RunningCostRecord 用车费用记录
type RunningCostRecord struct {
	ID          string   `json:"id" validate:"required"`
	Type        CostType `json:"type" validate:"required,oneof=fuel maintenance repair insurance tax parking toll other"`
	Date        string   `json:"date" validate:"required,isodate"`
	Amount      float64  `json:"amount" validate:"gte=0"`
	Mileage     *float64 `json:"mileage,omitempty" validate:"omitempty,gte=0"` // 发生时的里程
	Description *string  `json:"description,omitempty"`
	Vendor      *string  `json:"vendor,omitempty"`

	// 仅加油记录使用，Amount 应约等于 Liters * PricePerLiter
	Liters        *float64 `json:"liters,omitempty" validate:"omitempty,gte=0"`
	PricePerLiter *float64 `json:"pricePerLiter,omitempty" validate:"omitempty,gte=0"`
}

func (r RunningCostRecord) RecordID() string { return r.ID }

// Clone 深拷贝
func (r RunningCostRecord) Clone() RunningCostRecord {
	r.Mileage = clonePtr(r.Mileage)
	r.Description = clonePtr(r.Description)
	r.Vendor = clonePtr(r.Vendor)
	r.Liters = clonePtr(r.Liters)
	r.PricePerLiter = clonePtr(r.PricePerLiter)
	return r
}

// MaintenanceType 保养类型
type MaintenanceType string

const (
	MaintenanceScheduled   MaintenanceType = "scheduled"
	MaintenanceUnscheduled MaintenanceType = "unscheduled"
	MaintenanceRecall      MaintenanceType = "recall"
)

// MaintenanceRecord 保养维修记录
type MaintenanceRecord struct {
	ID                 string          `json:"id" validate:"required"`
	Date               string          `json:"date" validate:"required,isodate"`
	Mileage            float64         `json:"mileage" validate:"gte=0"`
	Type               MaintenanceType `json:"type" validate:"required,oneof=scheduled unscheduled recall"`
	Description        string          `json:"description" validate:"required"`
	Cost               float64         `json:"cost" validate:"gte=0"`
	PartsReplaced      []string        `json:"partsReplaced,omitempty"`
	ServiceProvider    *string         `json:"serviceProvider,omitempty"`
	NextServiceDate    *string         `json:"nextServiceDate,omitempty" validate:"omitempty,isodate"`
	NextServiceMileage *float64        `json:"nextServiceMileage,omitempty" validate:"omitempty,gte=0"`
	Notes              *string         `json:"notes,omitempty"`
}

func (r MaintenanceRecord) RecordID() string { return r.ID }

// MarshalJSON 序列化保养记录，空零件列表与不存在的零件列表区分开
func (r MaintenanceRecord) MarshalJSON() ([]byte, error) {
	type alias MaintenanceRecord
	return json.Marshal(struct {
		alias
		PartsReplaced *[]string `json:"partsReplaced,omitempty"`
	}{
		alias:         alias(r),
		PartsReplaced: present(r.PartsReplaced),
	})
}

// Clone 深拷贝
func (r MaintenanceRecord) Clone() MaintenanceRecord {
	if r.PartsReplaced != nil {
		parts := make([]string, len(r.PartsReplaced))
		copy(parts, r.PartsReplaced)
		r.PartsReplaced = parts
	}
	r.ServiceProvider = clonePtr(r.ServiceProvider)
	r.NextServiceDate = clonePtr(r.NextServiceDate)
	r.NextServiceMileage = clonePtr(r.NextServiceMileage)
	r.Notes = clonePtr(r.Notes)
	return r
}
