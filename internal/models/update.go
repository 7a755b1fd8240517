package models

// VehicleUpdate 车辆部分更新：非 nil 字段覆盖原值，nil 字段保留原值，不涉及历史记录
type VehicleUpdate struct {
	Make           *string       `json:"make,omitempty"`
	Model          *string       `json:"model,omitempty"`
	Year           *int          `json:"year,omitempty"`
	LicensePlate   *string       `json:"licensePlate,omitempty"`
	Fuel           *FuelType     `json:"fuel,omitempty"`
	EngineCode     *string       `json:"engineCode,omitempty"`
	ImageURL       *string       `json:"imageUrl,omitempty"`
	PurchasePrice  *float64      `json:"purchasePrice,omitempty"`
	CurrentMileage *float64      `json:"currentMileage,omitempty"`
	VIN            *string       `json:"vin,omitempty"`
	Color          *string       `json:"color,omitempty"`
	Transmission   *Transmission `json:"transmission,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
}

// IsEmpty 没有任何字段需要更新
func (u VehicleUpdate) IsEmpty() bool {
	return u == VehicleUpdate{}
}

// Fields 本次更新涉及的车辆字段名
func (u VehicleUpdate) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(u.Make != nil, "Make")
	add(u.Model != nil, "Model")
	add(u.Year != nil, "Year")
	add(u.LicensePlate != nil, "LicensePlate")
	add(u.Fuel != nil, "Fuel")
	add(u.EngineCode != nil, "EngineCode")
	add(u.ImageURL != nil, "ImageURL")
	add(u.PurchasePrice != nil, "PurchasePrice")
	add(u.CurrentMileage != nil, "CurrentMileage")
	add(u.VIN != nil, "VIN")
	add(u.Color != nil, "Color")
	add(u.Transmission != nil, "Transmission")
	add(u.Notes != nil, "Notes")
	return fields
}

// Apply 将更新合并到车辆上
func (u VehicleUpdate) Apply(v *Vehicle) {
	if u.Make != nil {
		v.Make = *u.Make
	}
	if u.Model != nil {
		v.Model = *u.Model
	}
	if u.Year != nil {
		v.Year = *u.Year
	}
	if u.LicensePlate != nil {
		v.LicensePlate = *u.LicensePlate
	}
	if u.Fuel != nil {
		v.Fuel = *u.Fuel
	}
	if u.EngineCode != nil {
		v.EngineCode = clonePtr(u.EngineCode)
	}
	if u.ImageURL != nil {
		v.ImageURL = clonePtr(u.ImageURL)
	}
	if u.PurchasePrice != nil {
		v.PurchasePrice = clonePtr(u.PurchasePrice)
	}
	if u.CurrentMileage != nil {
		v.CurrentMileage = clonePtr(u.CurrentMileage)
	}
	if u.VIN != nil {
		v.VIN = clonePtr(u.VIN)
	}
	if u.Color != nil {
		v.Color = clonePtr(u.Color)
	}
	if u.Transmission != nil {
		v.Transmission = clonePtr(u.Transmission)
	}
	if u.Notes != nil {
		v.Notes = clonePtr(u.Notes)
	}
}
