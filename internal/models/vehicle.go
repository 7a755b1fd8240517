package models

import "encoding/json"

// FuelType 燃料类型
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// Transmission 变速箱类型
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// Vehicle 车辆信息，历史记录以内嵌集合的形式归属于车辆
type Vehicle struct {
	ID           string   `json:"id" validate:"required"`
	Make         string   `json:"make" validate:"required"`
	Model        string   `json:"model" validate:"required"`
	Year         int      `json:"year" validate:"required,vehicle_year"`
	LicensePlate string   `json:"licensePlate"`
	Fuel         FuelType `json:"fuel" validate:"required,oneof=petrol diesel electric hybrid"`
	EngineCode   *string  `json:"engineCode,omitempty"`
	ImageURL     *string  `json:"imageUrl,omitempty"`

	// 历史记录 (nil 表示不存在，空切片表示已存在但为空)
	InsuranceHistory   []InsuranceRecord   `json:"insuranceHistory,omitempty" validate:"omitempty,dive"`
	InspectionHistory  []InspectionRecord  `json:"inspectionHistory,omitempty" validate:"omitempty,dive"`
	RunningCosts       []RunningCostRecord `json:"runningCosts,omitempty" validate:"omitempty,dive"`
	MaintenanceHistory []MaintenanceRecord `json:"maintenanceHistory,omitempty" validate:"omitempty,dive"`

	PurchasePrice  *float64 `json:"purchasePrice,omitempty" validate:"omitempty,gte=0"`
	CurrentMileage *float64 `json:"currentMileage,omitempty" validate:"omitempty,gte=0"` // km

	VIN          *string       `json:"vin,omitempty"`
	Color        *string       `json:"color,omitempty"`
	Transmission *Transmission `json:"transmission,omitempty" validate:"omitempty,oneof=manual automatic"`
	Notes        *string       `json:"notes,omitempty"`
}

// MarshalJSON 序列化车辆，保留历史集合 "不存在" 与 "空" 的区别
func (v Vehicle) MarshalJSON() ([]byte, error) {
	type alias Vehicle
	return json.Marshal(struct {
		alias
		InsuranceHistory   *[]InsuranceRecord   `json:"insuranceHistory,omitempty"`
		InspectionHistory  *[]InspectionRecord  `json:"inspectionHistory,omitempty"`
		RunningCosts       *[]RunningCostRecord `json:"runningCosts,omitempty"`
		MaintenanceHistory *[]MaintenanceRecord `json:"maintenanceHistory,omitempty"`
	}{
		alias:              alias(v),
		InsuranceHistory:   present(v.InsuranceHistory),
		InspectionHistory:  present(v.InspectionHistory),
		RunningCosts:       present(v.RunningCosts),
		MaintenanceHistory: present(v.MaintenanceHistory),
	})
}

func present[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}

// Clone 深拷贝
func (v Vehicle) Clone() Vehicle {
	out := v
	out.EngineCode = clonePtr(v.EngineCode)
	out.ImageURL = clonePtr(v.ImageURL)
	out.PurchasePrice = clonePtr(v.PurchasePrice)
	out.CurrentMileage = clonePtr(v.CurrentMileage)
	out.VIN = clonePtr(v.VIN)
	out.Color = clonePtr(v.Color)
	out.Transmission = clonePtr(v.Transmission)
	out.Notes = clonePtr(v.Notes)

	out.InsuranceHistory = cloneSlice(v.InsuranceHistory, InsuranceRecord.Clone)
	out.InspectionHistory = cloneSlice(v.InspectionHistory, InspectionRecord.Clone)
	out.RunningCosts = cloneSlice(v.RunningCosts, RunningCostRecord.Clone)
	out.MaintenanceHistory = cloneSlice(v.MaintenanceHistory, MaintenanceRecord.Clone)
	return out
}

// CloneVehicles 深拷贝车辆列表，nil 输入返回空列表
func CloneVehicles(in []Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(in))
	for _, v := range in {
		out = append(out, v.Clone())
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i := range in {
		out[i] = clone(in[i])
	}
	return out
}

// Ptr 返回值的指针，便于构造可选字段
func Ptr[T any](v T) *T {
	return &v
}
