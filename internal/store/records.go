package store

import (
	"fmt"

	"github.com/langchou/garage/internal/models"
)

// history 描述车辆上的一类历史记录
type history[R models.Record] struct {
	kind   models.RecordKind
	list   func(v *models.Vehicle) *[]R
	clone  func(R) R
	withID func(R, string) R
}

var (
	insuranceHistory = history[models.InsuranceRecord]{
		kind:  models.KindInsurance,
		list:  func(v *models.Vehicle) *[]models.InsuranceRecord { return &v.InsuranceHistory },
		clone: models.InsuranceRecord.Clone,
		withID: func(r models.InsuranceRecord, id string) models.InsuranceRecord {
			r.ID = id
			return r
		},
	}
	inspectionHistory = history[models.InspectionRecord]{
		kind:  models.KindInspection,
		list:  func(v *models.Vehicle) *[]models.InspectionRecord { return &v.InspectionHistory },
		clone: models.InspectionRecord.Clone,
		withID: func(r models.InspectionRecord, id string) models.InspectionRecord {
			r.ID = id
			return r
		},
	}
	runningCosts = history[models.RunningCostRecord]{
		kind:  models.KindRunningCost,
		list:  func(v *models.Vehicle) *[]models.RunningCostRecord { return &v.RunningCosts },
		clone: models.RunningCostRecord.Clone,
		withID: func(r models.RunningCostRecord, id string) models.RunningCostRecord {
			r.ID = id
			return r
		},
	}
	maintenanceHistory = history[models.MaintenanceRecord]{
		kind:  models.KindMaintenance,
		list:  func(v *models.Vehicle) *[]models.MaintenanceRecord { return &v.MaintenanceHistory },
		clone: models.MaintenanceRecord.Clone,
		withID: func(r models.MaintenanceRecord, id string) models.MaintenanceRecord {
			r.ID = id
			return r
		},
	}
)

func vehicleNotFound(id string) error {
	return fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
}

func recordNotFound(kind models.RecordKind, id string) error {
	return fmt.Errorf("%s record %s: %w", kind, id, ErrNotFound)
}

func indexOfRecord[R models.Record](records []R, id string) int {
	for i := range records {
		if records[i].RecordID() == id {
			return i
		}
	}
	return -1
}

// addRecord 把记录插入到序列最前面，序列不存在时创建
func addRecord[R models.Record](s *Store, h history[R], vehicleID string, rec R) error {
	if err := models.Validate(&rec); err != nil {
		return err
	}

	return s.mutate(func() (Change, error) {
		idx := s.indexesOf(vehicleID)
		if len(idx) == 0 {
			return Change{}, vehicleNotFound(vehicleID)
		}
		if s.strict {
			for _, i := range idx {
				if indexOfRecord(*h.list(&s.cars[i]), rec.RecordID()) >= 0 {
					return Change{}, fmt.Errorf("%s record %s: %w", h.kind, rec.RecordID(), ErrDuplicateID)
				}
			}
		}

		for _, i := range idx {
			list := h.list(&s.cars[i])
			next := make([]R, 0, len(*list)+1)
			next = append(next, h.clone(rec))
			*list = append(next, *list...)
		}
		return Change{Op: OpRecordAdded, VehicleID: vehicleID, RecordKind: h.kind, RecordID: rec.RecordID()}, nil
	})
}

// updateRecord 整体替换匹配的记录，保留位置和 ID
func updateRecord[R models.Record](s *Store, h history[R], vehicleID, recordID string, rec R) error {
	rec = h.withID(rec, recordID)
	if err := models.Validate(&rec); err != nil {
		return err
	}

	return s.mutate(func() (Change, error) {
		idx := s.indexesOf(vehicleID)
		if len(idx) == 0 {
			return Change{}, vehicleNotFound(vehicleID)
		}

		found := false
		for _, i := range idx {
			list := *h.list(&s.cars[i])
			for j := range list {
				if list[j].RecordID() == recordID {
					list[j] = h.clone(rec)
					found = true
				}
			}
		}
		if !found {
			return Change{}, recordNotFound(h.kind, recordID)
		}
		return Change{Op: OpRecordUpdated, VehicleID: vehicleID, RecordKind: h.kind, RecordID: recordID}, nil
	})
}

// deleteRecord 删除匹配的记录，其余记录顺序不变
func deleteRecord[R models.Record](s *Store, h history[R], vehicleID, recordID string) error {
	return s.mutate(func() (Change, error) {
		idx := s.indexesOf(vehicleID)
		if len(idx) == 0 {
			return Change{}, vehicleNotFound(vehicleID)
		}

		found := false
		for _, i := range idx {
			list := h.list(&s.cars[i])
			if indexOfRecord(*list, recordID) < 0 {
				continue
			}
			kept := make([]R, 0, len(*list))
			for _, r := range *list {
				if r.RecordID() != recordID {
					kept = append(kept, r)
				}
			}
			*list = kept
			found = true
		}
		if !found {
			return Change{}, recordNotFound(h.kind, recordID)
		}
		return Change{Op: OpRecordDeleted, VehicleID: vehicleID, RecordKind: h.kind, RecordID: recordID}, nil
	})
}

// AddInsurance 添加保险记录
func (s *Store) AddInsurance(vehicleID string, r models.InsuranceRecord) error {
	return addRecord(s, insuranceHistory, vehicleID, r)
}

// UpdateInsurance 替换保险记录
func (s *Store) UpdateInsurance(vehicleID, recordID string, r models.InsuranceRecord) error {
	return updateRecord(s, insuranceHistory, vehicleID, recordID, r)
}

// DeleteInsurance 删除保险记录
func (s *Store) DeleteInsurance(vehicleID, recordID string) error {
	return deleteRecord(s, insuranceHistory, vehicleID, recordID)
}

// AddInspection 添加检验记录
func (s *Store) AddInspection(vehicleID string, r models.InspectionRecord) error {
	return addRecord(s, inspectionHistory, vehicleID, r)
}

// UpdateInspection 替换检验记录
func (s *Store) UpdateInspection(vehicleID, recordID string, r models.InspectionRecord) error {
	return updateRecord(s, inspectionHistory, vehicleID, recordID, r)
}

// DeleteInspection 删除检验记录
func (s *Store) DeleteInspection(vehicleID, recordID string) error {
	return deleteRecord(s, inspectionHistory, vehicleID, recordID)
}

// AddRunningCost 添加费用记录
func (s *Store) AddRunningCost(vehicleID string, r models.RunningCostRecord) error {
	return addRecord(s, runningCosts, vehicleID, r)
}

// UpdateRunningCost 替换费用记录
func (s *Store) UpdateRunningCost(vehicleID, recordID string, r models.RunningCostRecord) error {
	return updateRecord(s, runningCosts, vehicleID, recordID, r)
}

// DeleteRunningCost 删除费用记录
func (s *Store) DeleteRunningCost(vehicleID, recordID string) error {
	return deleteRecord(s, runningCosts, vehicleID, recordID)
}

// AddMaintenance 添加保养记录
func (s *Store) AddMaintenance(vehicleID string, r models.MaintenanceRecord) error {
	return addRecord(s, maintenanceHistory, vehicleID, r)
}

// UpdateMaintenance 替换保养记录
func (s *Store) UpdateMaintenance(vehicleID, recordID string, r models.MaintenanceRecord) error {
	return updateRecord(s, maintenanceHistory, vehicleID, recordID, r)
}

// DeleteMaintenance 删除保养记录
func (s *Store) DeleteMaintenance(vehicleID, recordID string) error {
	return deleteRecord(s, maintenanceHistory, vehicleID, recordID)
}
