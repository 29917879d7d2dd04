package units

import "fmt"

// IncompatibleUnitsError indicates an attempt to use a unit outside the
// required group, e.g. a pressure threshold applied to a temperature type.
type IncompatibleUnitsError struct {
	Unit      string // the offending unit
	Group     Group  // the group it belongs to
	WantGroup Group  // the group that was required
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("incompatible units: %q is %s, want %s", e.Unit, e.Group, e.WantGroup)
}

// UnknownConversionError indicates a unit this package has no conversion for.
type UnknownConversionError struct {
	Unit string
}

func (e *UnknownConversionError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Unit)
}

// conversions maps source unit → target unit → conversion function. Identity
// conversions are handled before the table is consulted.
var conversions = map[string]map[string]func(float64) float64{
	DegreeC: {
		DegreeF: func(v float64) float64 { return v*9.0/5.0 + 32.0 },
		Kelvin:  func(v float64) float64 { return v + 273.15 },
	},
	DegreeF: {
		DegreeC: func(v float64) float64 { return (v - 32.0) * 5.0 / 9.0 },
		Kelvin:  func(v float64) float64 { return (v-32.0)*5.0/9.0 + 273.15 },
	},
	Kelvin: {
		DegreeC: func(v float64) float64 { return v - 273.15 },
		DegreeF: func(v float64) float64 { return (v-273.15)*9.0/5.0 + 32.0 },
	},
	HPa: {
		Mbar: func(v float64) float64 { return v },
		InHg: func(v float64) float64 { return v * 0.0295299875 },
		MmHg: func(v float64) float64 { return v * 0.7500616827 },
	},
	Mbar: {
		HPa:  func(v float64) float64 { return v },
		InHg: func(v float64) float64 { return v * 0.0295299875 },
		MmHg: func(v float64) float64 { return v * 0.7500616827 },
	},
	InHg: {
		HPa:  func(v float64) float64 { return v / 0.0295299875 },
		Mbar: func(v float64) float64 { return v / 0.0295299875 },
		MmHg: func(v float64) float64 { return v * 25.4 },
	},
	MmHg: {
		HPa:  func(v float64) float64 { return v / 0.7500616827 },
		Mbar: func(v float64) float64 { return v / 0.7500616827 },
		InHg: func(v float64) float64 { return v / 25.4 },
	},
	MeterPerSecond: {
		KmPerHour:   func(v float64) float64 { return v * 3.6 },
		MilePerHour: func(v float64) float64 { return v * 2.236936292 },
		Knot:        func(v float64) float64 { return v * 1.94384449 },
	},
	KmPerHour: {
		MeterPerSecond: func(v float64) float64 { return v / 3.6 },
		MilePerHour:    func(v float64) float64 { return v * 0.621371192 },
		Knot:           func(v float64) float64 { return v * 0.539956803 },
	},
	MilePerHour: {
		MeterPerSecond: func(v float64) float64 { return v * 0.44704 },
		KmPerHour:      func(v float64) float64 { return v * 1.609344 },
		Knot:           func(v float64) float64 { return v * 0.868976242 },
	},
	Knot: {
		MeterPerSecond: func(v float64) float64 { return v * 0.514444444 },
		KmPerHour:      func(v float64) float64 { return v * 1.85200 },
		MilePerHour:    func(v float64) float64 { return v * 1.150779448 },
	},
	Mm: {
		Cm:   func(v float64) float64 { return v / 10.0 },
		Inch: func(v float64) float64 { return v / 25.4 },
	},
	Cm: {
		Mm:   func(v float64) float64 { return v * 10.0 },
		Inch: func(v float64) float64 { return v / 2.54 },
	},
	Inch: {
		Mm: func(v float64) float64 { return v * 25.4 },
		Cm: func(v float64) float64 { return v * 2.54 },
	},
}

// Convert returns v expressed in toUnit. It fails with
// IncompatibleUnitsError when the units belong to different groups, and
// UnknownConversionError when a unit is not known at all. Only numeric
// values can be converted.
func Convert(v Value, toUnit string) (Value, error) {
	if v.Kind != KindNumeric {
		return Value{}, fmt.Errorf("cannot convert non-numeric value")
	}
	if v.Unit == toUnit {
		return v, nil
	}
	fromGroup, ok := unitGroups[v.Unit]
	if !ok {
		return Value{}, &UnknownConversionError{Unit: v.Unit}
	}
	toGroup, ok := unitGroups[toUnit]
	if !ok {
		return Value{}, &UnknownConversionError{Unit: toUnit}
	}
	if fromGroup != toGroup {
		return Value{}, &IncompatibleUnitsError{Unit: v.Unit, Group: fromGroup, WantGroup: toGroup}
	}
	fn, ok := conversions[v.Unit][toUnit]
	if !ok {
		return Value{}, &UnknownConversionError{Unit: v.Unit}
	}
	return Numeric(fn(v.Num), toUnit, toGroup), nil
}

// ConvertStd returns v expressed in the standard unit its group uses under
// the given unit system.
func ConvertStd(v Value, system System) (Value, error) {
	if v.Kind != KindNumeric {
		return Value{}, fmt.Errorf("cannot convert non-numeric value")
	}
	group, ok := unitGroups[v.Unit]
	if !ok {
		return Value{}, &UnknownConversionError{Unit: v.Unit}
	}
	target, ok := StdUnit(system, group)
	if !ok {
		return Value{}, fmt.Errorf("no standard unit for %s in %s", group, system)
	}
	return Convert(v, target)
}
