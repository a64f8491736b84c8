package hijri

import "fmt"

// MonthNamesArabic are the Hijri month names used across the admin dashboards.
var MonthNamesArabic = [12]string{
	"محرم",
	"صفر",
	"ربيع الأول",
	"ربيع الثاني",
	"جمادى الأولى",
	"جمادى الآخرة",
	"رجب",
	"شعبان",
	"رمضان",
	"شوال",
	"ذو القعدة",
	"ذو الحجة",
}

// FormatArabic renders a Hijri date with the Arabic month name and the
// AH era suffix, e.g. "15 رجب 1446 هـ". Presentation only.
func FormatArabic(d Date) string {
	if d.Month < 1 || d.Month > 12 {
		return d.String()
	}
	return fmt.Sprintf("%d %s %d هـ", d.Day, MonthNamesArabic[d.Month-1], d.Year)
}
