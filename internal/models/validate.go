package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid 数据校验失败
var ErrInvalid = errors.New("invalid")

var validate *validator.Validate

func init() {
	validate = validator.New()

	// 错误信息中使用 JSON 字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("isodate", validateISODate)
	_ = validate.RegisterValidation("vehicle_year", validateVehicleYear)
}

// Validate 校验车辆或历史记录，失败时返回包装了 ErrInvalid 的错误
func Validate(v interface{}) error {
	return wrapValidation(validate.Struct(v))
}

// ValidateFields 只校验车辆的指定字段，历史记录和其他已保存字段不参与
func ValidateFields(v *Vehicle, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return wrapValidation(validate.StructPartial(v, fields...))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fieldPath(fe), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// fieldPath 去掉顶层结构体名: Vehicle.insuranceHistory[0].cost -> insuranceHistory[0].cost
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

// validateVehicleYear 年份需在第一辆汽车诞生之后，且不晚于明年
func validateVehicleYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= 1886 && year <= int64(time.Now().Year()+1)
}

// DuplicateRecordID 查找车辆内重复的记录 ID
func DuplicateRecordID(v *Vehicle) (RecordKind, string, bool) {
	if id, ok := firstDuplicate(v.InsuranceHistory); ok {
		return KindInsurance, id, true
	}
	if id, ok := firstDuplicate(v.InspectionHistory); ok {
		return KindInspection, id, true
	}
	if id, ok := firstDuplicate(v.RunningCosts); ok {
		return KindRunningCost, id, true
	}
	if id, ok := firstDuplicate(v.MaintenanceHistory); ok {
		return KindMaintenance, id, true
	}
	return "", "", false
}

func firstDuplicate[R Record](records []R) (string, bool) {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		id := r.RecordID()
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
