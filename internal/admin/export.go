package admin

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const exportLimit = 10000

// columns never written to a spreadsheet
var exportSkip = map[string]bool{"password_hash": true}

// Export writes the filtered rows of T to a single-sheet workbook, one
// column per database column in declaration order.
func (t *Table[T]) Export(db *gorm.DB, q ListQuery) (*excelize.File, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	var fields []*schema.Field
	for _, name := range stmt.Schema.DBNames {
		if exportSkip[name] {
			continue
		}
		fields = append(fields, stmt.Schema.FieldsByDBName[name])
	}

	tx, err := t.scoped(db, q)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := tx.Order("id").Limit(exportLimit).Find(&rows).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := t.slug
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]any, len(fields))
	for i, fld := range fields {
		header[i] = fld.DBName
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	ctx := context.Background()
	for r := range rows {
		rv := reflect.ValueOf(&rows[r]).Elem()
		vals := make([]any, len(fields))
		for i, fld := range fields {
			v, _ := fld.ValueOf(ctx, rv)
			vals[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// cellValue flattens model values into types excelize writes natively.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return ""
		}
		return cellValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return fmt.Sprint(v)
}
