// Package render produces the fixed-width forecast tables sent to chats.
// The layout is deliberately rigid: two rows per location, constant column
// widths, and placeholders for missing data so rows always line up.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/airemonte/termica-bot/internal/meteo"
)

// Spanish date tokens, as the bot has always printed them.
var (
	weekdays = [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	months   = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}
)

// Row pairs the two row labels of one location with its aggregated record.
// Named sites repeat the site name on both rows; an ad-hoc coordinate prints
// its latitude over its longitude.
type Row struct {
	Top    string
	Bottom string
	Record meteo.DayRecord
}

// CoordLabels formats an ad-hoc coordinate as the two row labels.
func CoordLabels(coord meteo.Coordinate) (top, bottom string) {
	return fmt.Sprintf("%5.1f", coord.Lat), fmt.Sprintf("%5.1f", coord.Lon)
}

// Table renders the forecast table for one day. dayOffset is 0 for today and
// picks the title prefix; date is the target local date. Rows are rendered in
// the order given, never resorted.
func Table(dayOffset int, date time.Time, rows []Row) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Prono: %s %s %d %s %dhs\n",
		dayPrefix(dayOffset), weekdays[date.Weekday()], date.Day(), months[date.Month()-1], meteo.TargetHour)
	b.WriteString("*****|viento km/h      |nb|térmica m/s\n")
	b.WriteString("*****| ↓ |1,5k|2k |2,5k|% |1,5k|2k  |2,5k|\n")
	b.WriteString("\n")

	for _, row := range rows {
		writeLocation(&b, row)
		b.WriteString("\n")
	}

	return b.String()
}

func dayPrefix(dayOffset int) string {
	switch dayOffset {
	case 0:
		return "hoy"
	case 1:
		return "mañ"
	default:
		return fmt.Sprintf("pas+%d", dayOffset-1)
	}
}

func writeLocation(b *strings.Builder, row Row) {
	rec := row.Record

	fmt.Fprintf(b, "%-5.5s|%2d |%3d |%2d |%3d |%2d|%4s|%4s|%4s|\n",
		row.Top,
		roundedMean(rec, meteo.FieldWindSpeed, meteo.LevelSurface),
		roundedMean(rec, meteo.FieldWindSpeed, meteo.Level850),
		roundedMean(rec, meteo.FieldWindSpeed, meteo.Level800),
		roundedMean(rec, meteo.FieldWindSpeed, meteo.Level750),
		roundedMean(rec, meteo.FieldCloudCover, meteo.LevelSurface),
		thermal(rec, meteo.Level850),
		thermal(rec, meteo.Level800),
		thermal(rec, meteo.Level750),
	)
	fmt.Fprintf(b, "%-5.5s|%3s|%4s|%3s|%4s|%% |±%s|±%s|±%s|\n",
		row.Bottom,
		direction(rec, meteo.LevelSurface),
		direction(rec, meteo.Level850),
		direction(rec, meteo.Level800),
		direction(rec, meteo.Level750),
		spread(rec, meteo.Level850),
		spread(rec, meteo.Level800),
		spread(rec, meteo.Level750),
	)
}

// roundedMean renders a magnitude as a whole number, 0 when absent.
func roundedMean(rec meteo.DayRecord, field meteo.Field, lvl meteo.Level) int {
	st := rec.Stats[meteo.VarKey{Field: field, Level: lvl}]
	if !st.HasMean() {
		return 0
	}
	return int(math.Round(st.Mean))
}

func direction(rec meteo.DayRecord, lvl meteo.Level) string {
	st := rec.Stats[meteo.VarKey{Field: meteo.FieldWindDirection, Level: lvl}]
	if !st.HasMean() {
		return meteo.CompassUnknown
	}
	return meteo.CompassDirection(st.Mean)
}

func thermal(rec meteo.DayRecord, lvl meteo.Level) string {
	est := rec.Thermals[lvl]
	if est == nil {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", est.Velocity)
}

// spread renders the thermal dispersion. Both "no estimate" and an
// insufficient sample print the fixed 0.1 epsilon so column widths hold.
func spread(rec meteo.DayRecord, lvl meteo.Level) string {
	est := rec.Thermals[lvl]
	if est == nil || !est.HasStd {
		return "0.1"
	}
	return fmt.Sprintf("%.1f", est.Std)
}
