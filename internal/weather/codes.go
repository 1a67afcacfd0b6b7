package weather

// CodeInfo describes how a WMO weather code is labelled and bucketed.
type CodeInfo struct {
	Label      string   `json:"label"`
	Category   Category `json:"category"`
	DayIcon    string   `json:"dayIcon"`
	NightIcon  string   `json:"nightIcon"`
	ColorToken string   `json:"colorToken"`
}

// Icon picks the day or night icon token.
func (c CodeInfo) Icon(isDay bool) string {
	if isDay {
		return c.DayIcon
	}
	return c.NightIcon
}

// UnknownCode is returned for codes missing from the table.
var UnknownCode = CodeInfo{
	Label:      "Unknown",
	Category:   CategoryDefault,
	DayIcon:    "cloud",
	NightIcon:  "cloud",
	ColorToken: "text-slate-400",
}

// codeTable is read-only after init.
var codeTable = map[int]CodeInfo{
	0:  {Label: "Clear Sky", Category: CategoryClear, DayIcon: "sun", NightIcon: "moon", ColorToken: "text-yellow-200"},
	1:  {Label: "Mainly Clear", Category: CategoryClear, DayIcon: "sun", NightIcon: "moon", ColorToken: "text-yellow-100"},
	2:  {Label: "Partly Cloudy", Category: CategoryCloudy, DayIcon: "cloud", NightIcon: "cloud", ColorToken: "text-emerald-200"},
	3:  {Label: "Overcast", Category: CategoryCloudy, DayIcon: "cloud", NightIcon: "cloud", ColorToken: "text-emerald-50"},
	45: {Label: "Foggy", Category: CategoryCloudy, DayIcon: "cloud", NightIcon: "cloud", ColorToken: "text-slate-200"},
	48: {Label: "Rime Fog", Category: CategoryCloudy, DayIcon: "cloud", NightIcon: "cloud", ColorToken: "text-slate-200"},
	51: {Label: "Light Drizzle", Category: CategoryRainy, DayIcon: "cloud-drizzle", NightIcon: "cloud-drizzle", ColorToken: "text-cyan-200"},
	61: {Label: "Slight Rain", Category: CategoryRainy, DayIcon: "cloud-rain", NightIcon: "cloud-rain", ColorToken: "text-cyan-300"},
	63: {Label: "Moderate Rain", Category: CategoryRainy, DayIcon: "cloud-rain", NightIcon: "cloud-rain", ColorToken: "text-cyan-400"},
	65: {Label: "Heavy Rain", Category: CategoryRainy, DayIcon: "cloud-rain", NightIcon: "cloud-rain", ColorToken: "text-cyan-500"},
	71: {Label: "Slight Snow", Category: CategorySnowy, DayIcon: "cloud-snow", NightIcon: "cloud-snow", ColorToken: "text-blue-100"},
	77: {Label: "Snow Grains", Category: CategorySnowy, DayIcon: "cloud-snow", NightIcon: "cloud-snow", ColorToken: "text-blue-200"},
	80: {Label: "Rain Showers", Category: CategoryRainy, DayIcon: "cloud-rain", NightIcon: "cloud-rain", ColorToken: "text-cyan-400"},
	95: {Label: "Thunderstorm", Category: CategoryStormy, DayIcon: "cloud-lightning", NightIcon: "cloud-lightning", ColorToken: "text-amber-400"},
}

// LookupCode returns the table entry for code, or UnknownCode.
func LookupCode(code int) CodeInfo {
	if info, ok := codeTable[code]; ok {
		return info
	}
	return UnknownCode
}

// CategoryOf is shorthand for LookupCode(code).Category.
func CategoryOf(code int) Category {
	return LookupCode(code).Category
}
