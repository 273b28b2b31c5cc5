package fanout

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	statsService "attendance_backend/internals/features/attendance/stats/service"
)

func alertMessage(subjectName string, s statsService.Stats, needed int64) string {
	return fmt.Sprintf("Kehadiran %s kamu %.2f%% (%s). Hadir %d sesi berturut-turut lagi untuk mencapai 75%%.",
		subjectName, s.Percentage, s.Status, needed)
}

var criticalEmailTmpl = template.Must(template.New("critical").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<p>Halo {{.Name}},</p>
<p>Kehadiran kamu di <b>{{.SubjectCode}} {{.SubjectName}}</b> saat ini
<b style="color:#c0392b">{{printf "%.2f" .Stats.Percentage}}%</b> (status {{.Stats.Status}}).</p>
<table cellpadding="4" style="border-collapse:collapse">
<tr><td>Total sesi</td><td>{{.Stats.TotalSessions}}</td></tr>
<tr><td>Hadir</td><td>{{.Stats.Present}}</td></tr>
<tr><td>Terlambat</td><td>{{.Stats.Late}}</td></tr>
<tr><td>Izin</td><td>{{.Stats.Excused}}</td></tr>
<tr><td>Tidak hadir</td><td>{{.Stats.Absent}}</td></tr>
</table>
<p>Kamu perlu hadir <b>{{.Needed}}</b> sesi berturut-turut untuk kembali ke 75%.</p>
</body></html>`))

func criticalEmailHTML(name, subjectCode, subjectName string, s statsService.Stats, needed int64) string {
	if name == "" {
		name = "Mahasiswa"
	}
	var buf bytes.Buffer
	err := criticalEmailTmpl.Execute(&buf, map[string]any{
		"Name":        name,
		"SubjectCode": subjectCode,
		"SubjectName": subjectName,
		"Stats":       s,
		"Needed":      needed,
	})
	if err != nil {
		log.Printf("[FANOUT] render email gagal: %v", err)
		return "<p>" + template.HTMLEscapeString(alertMessage(subjectName, s, needed)) + "</p>"
	}
	return buf.String()
}
