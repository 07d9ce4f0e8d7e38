package pm2005

import (
	"fmt"
	"io"
)

const conditionPrefix = "PM2005: "

// HexDump renders data as space-separated uppercase hex pairs ending in a newline.
func HexDump(data []byte) string {
	return fmt.Sprintf("% X\n", data)
}

// PrintReading writes the counts and concentrations of r, one per line.
func PrintReading(w io.Writer, r Reading) error {
	_, err := fmt.Fprintf(w,
		"0.5um [pcs/L]: %d\n2.5um [pcs/L]: %d\n10um [pcs/L]: %d\nPM2.5 [ug/m^3] : %d\nPM10 [ug/m^3]  : %d\n",
		r.Counts0_5um, r.Counts2_5um, r.Counts10um, r.PM2_5, r.PM10)
	return err
}

// PrintAlarms writes one line per set alarm flag.
func PrintAlarms(w io.Writer, a AlarmFlags) error {
	return printLines(w, a.Conditions())
}

// PrintCalibration writes one line per set calibration flag.
func PrintCalibration(w io.Writer, c CalibrationFlags) error {
	return printLines(w, c.Conditions())
}

// PrintWorkStatus writes the work status line.
func PrintWorkStatus(w io.Writer, s WorkStatus) error {
	return printLines(w, []string{s.String()})
}

// PrintStatus writes alarms, calibration flags and work status of r.
func PrintStatus(w io.Writer, r Reading) error {
	if err := PrintAlarms(w, r.Alarm); err != nil {
		return err
	}
	if err := PrintCalibration(w, r.Calibration); err != nil {
		return err
	}
	return PrintWorkStatus(w, r.WorkStatus)
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := io.WriteString(w, conditionPrefix+l+"\n"); err != nil {
			return err
		}
	}
	return nil
}
