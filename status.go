package pm2005

import "fmt"

// AlarmFlags is the alarm byte of a concentration reply. Any subset of bits may be set.
type AlarmFlags byte

const (
	AlarmHighRPM AlarmFlags = 1 << iota
	AlarmLowRPM
	AlarmHighTemp
	AlarmLowTemp
	AlarmHighSensitivity
	AlarmLowSensitivity
	AlarmHighIld
	AlarmLowIld
)

var alarmNames = []struct {
	flag AlarmFlags
	name string
}{
	{AlarmHighRPM, "high RPM"},
	{AlarmLowRPM, "low RPM"},
	{AlarmHighTemp, "high Temp"},
	{AlarmLowTemp, "low Temp"},
	{AlarmHighSensitivity, "high sensit."},
	{AlarmLowSensitivity, "low sensit."},
	{AlarmHighIld, "high Ild"},
	{AlarmLowIld, "low Ild"},
}

// Has reports whether every bit of flag is set.
func (a AlarmFlags) Has(flag AlarmFlags) bool {
	return a&flag == flag
}

// Conditions names each set alarm, lowest bit first.
func (a AlarmFlags) Conditions() []string {
	var out []string
	for _, n := range alarmNames {
		if a.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return out
}

// CalibrationFlags is the calibration byte of a concentration reply.
type CalibrationFlags byte

const (
	UncalibratedNormalTemp CalibrationFlags = 1 << iota
	UncalibratedLowTemp
	UncalibratedHighTemp
)

var calibrationNames = []struct {
	flag CalibrationFlags
	name string
}{
	{UncalibratedNormalTemp, "uncal., normal T"},
	{UncalibratedLowTemp, "uncal., low T"},
	{UncalibratedHighTemp, "uncal., high T"},
}

// Has reports whether every bit of flag is set.
func (c CalibrationFlags) Has(flag CalibrationFlags) bool {
	return c&flag == flag
}

// Conditions names each set calibration flag, lowest bit first.
// Bits above bit 2 carry no meaning and are not reported.
func (c CalibrationFlags) Conditions() []string {
	var out []string
	for _, n := range calibrationNames {
		if c.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return out
}

// WorkStatus is the operating state reported by the sensor. Only exact values
// are recognized; everything else is unknown.
type WorkStatus byte

const (
	WorkStatusMeasuring WorkStatus = 1
	WorkStatusStopped   WorkStatus = 3
	WorkStatusDone      WorkStatus = 128
)

// Known reports whether s is one of the recognized states.
func (s WorkStatus) Known() bool {
	switch s {
	case WorkStatusStopped, WorkStatusMeasuring, WorkStatusDone:
		return true
	}
	return false
}

func (s WorkStatus) String() string {
	switch s {
	case WorkStatusStopped:
		return "stopped"
	case WorkStatusMeasuring:
		return "measuring"
	case WorkStatusDone:
		return "done"
	default:
		return fmt.Sprintf("unknown workstatus 0x%02X", byte(s))
	}
}
