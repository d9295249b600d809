package inspector

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Widget types for rendering fields.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetVector
	WidgetBool
	WidgetSkip
)

var vecType = reflect.TypeOf(r3.Vec{})

// Field represents a component field with rendering hints.
type Field struct {
	Name    string
	Value   any
	Widget  Widget
	Options map[string]string
}

var widgetNames = map[string]Widget{
	"label":  WidgetLabel,
	"bar":    WidgetBar,
	"vector": WidgetVector,
	"bool":   WidgetBool,
	"skip":   WidgetSkip,
	"-":      WidgetSkip,
}

// ParseTag parses an inspect struct tag of the form
// `inspect:"widget[,option:value...]"`, e.g. `inspect:"bar,max:15"` or
// `inspect:"label,fmt:%.1f"`. Unknown widgets fall back to auto detection.
func ParseTag(tag string) (Widget, map[string]string) {
	options := make(map[string]string)
	name, rest, _ := strings.Cut(tag, ",")
	widget := widgetNames[strings.TrimSpace(name)]

	for rest != "" {
		var part string
		part, rest, _ = strings.Cut(rest, ",")
		if k, v, ok := strings.Cut(strings.TrimSpace(part), ":"); ok {
			options[k] = v
		}
	}
	return widget, options
}

// ExtractFields uses reflection to extract all exported fields from a
// component struct (or pointer to one).
func ExtractFields(component any) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	var fields []Field

	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)

		widget, options := ParseTag(sf.Tag.Get("inspect"))
		if widget == WidgetSkip {
			continue
		}
		if widget == WidgetAuto {
			widget = autoDetectWidget(fv)
		}

		fields = append(fields, Field{
			Name:    sf.Name,
			Value:   fv.Interface(),
			Widget:  widget,
			Options: options,
		})
	}

	return fields
}

// autoDetectWidget chooses a widget based on the field type.
func autoDetectWidget(v reflect.Value) Widget {
	switch {
	case v.Type() == vecType:
		return WidgetVector
	case v.Kind() == reflect.Bool:
		return WidgetBool
	default:
		return WidgetLabel
	}
}

// FormatValue formats a field value as a string. Vectors and quaternions
// get a compact tuple form.
func FormatValue(value any, fmtStr string) string {
	if fmtStr != "" {
		return fmt.Sprintf(fmtStr, value)
	}
	switch v := value.(type) {
	case float32:
		return fmt.Sprintf("%.2f", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case r3.Vec:
		return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
	case quat.Number:
		return fmt.Sprintf("(%.2f, %.2f, %.2f, %.2f)", v.Real, v.Imag, v.Jmag, v.Kmag)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// GetMax returns the max option as a float, defaulting to 1.0.
func GetMax(options map[string]string) float64 {
	if maxStr, ok := options["max"]; ok {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil {
			return max
		}
	}
	return 1.0
}

// GetFloatValue extracts a float64 from any numeric kind.
func GetFloatValue(value any) (float64, bool) {
	v := reflect.ValueOf(value)
	switch {
	case v.CanFloat():
		return v.Float(), true
	case v.CanInt():
		return float64(v.Int()), true
	case v.CanUint():
		return float64(v.Uint()), true
	}
	return 0, false
}
