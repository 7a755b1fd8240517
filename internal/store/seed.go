package store

import "github.com/langchou/garage/internal/models"

// DefaultSeed 首次启动时的内置车辆列表
func DefaultSeed() []models.Vehicle {
	return []models.Vehicle{
		{
			ID:           "1",
			Make:         "Bmw",
			Model:        "330ci",
			Year:         2002,
			LicensePlate: "ABC1234",
			Fuel:         models.FuelPetrol,
			EngineCode:   models.Ptr("M54B30"),
			ImageURL:     models.Ptr(""),
		},
		{
			ID:           "4",
			Make:         "Saab",
			Model:        "9-3 Convertible",
			Year:         2005,
			LicensePlate: "B134DVX",
			Fuel:         models.FuelPetrol,
			EngineCode:   models.Ptr("B207L"),
			ImageURL:     models.Ptr(""),
			InsuranceHistory: []models.InsuranceRecord{{
				ID:           "1",
				Provider:     "Grawe",
				PolicyNumber: models.Ptr(""),
				StartDate:    "2024-12-14T14:48:00.000Z",
				ExpiryDate:   "2025-12-14T14:48:00.000Z",
				Cost:         400,
				CoverageType: models.Ptr("comprehensive"),
			}},
			InspectionHistory: []models.InspectionRecord{{
				ID:         "1",
				Type:       models.InspectionTechnical,
				Date:       "2024-12-05T14:48:00.000Z",
				ExpiryDate: models.Ptr("2025-12-05T14:48:00.000Z"),
				Result:     models.ResultPass,
				Mileage:    models.Ptr(285000.0),
			}},
			RunningCosts: []models.RunningCostRecord{
				{ID: "1", Type: models.CostOther, Date: "2020-01-01T00:00:00.000Z", Amount: 3000, Description: models.Ptr("Vehicle purchase")},
				{ID: "2", Type: models.CostFuel, Date: "2025-01-01T00:00:00.000Z", Amount: 7000, Description: models.Ptr("Cumulative fuel costs")},
				{ID: "3", Type: models.CostMaintenance, Date: "2025-01-01T00:00:00.000Z", Amount: 4000, Description: models.Ptr("Cumulative maintenance costs")},
				{ID: "4", Type: models.CostRepair, Date: "2025-01-01T00:00:00.000Z", Amount: 6500, Description: models.Ptr("Cumulative repair costs")},
			},
			PurchasePrice:  models.Ptr(3000.0),
			CurrentMileage: models.Ptr(289000.0),
			MaintenanceHistory: []models.MaintenanceRecord{
				{
					ID:                 "1",
					Date:               "2025-08-20T14:48:00.000Z",
					Mileage:            285000,
					Type:               models.MaintenanceScheduled,
					Description:        "ulei kroon oil torsynth 5w40 + filtru ulei mann",
					Cost:               450,
					NextServiceDate:    models.Ptr("2026-08-20T14:48:00.000Z"),
					NextServiceMileage: models.Ptr(295000.0),
				},
				{
					ID:          "2",
					Date:        "2025-09-20T14:48:00.000Z",
					Mileage:     287382,
					Type:        models.MaintenanceScheduled,
					Description: "Bujii denso ik24 gap 0.8mm",
					Cost:        450,
				},
			},
			VIN:          models.Ptr("YS3FF75S556010287"),
			Color:        models.Ptr("Black"),
			Transmission: models.Ptr(models.TransmissionManual),
		},
	}
}
