package booking

// Panel is a fixed blood-test panel displayed on the choose step. Panel
// choice is carried with the selection but is intentionally not wired into
// the continue guard or the total, which is keyed on collection method only.
// That mirrors the shipped product behavior, discrepancy and all.
type Panel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// PartnerLab is a fixed, non-interactive partner lab listing shown on the
// location step for lab collection.
type PartnerLab struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
}

// Panels are the three fixed test panels.
var Panels = []Panel{
	{ID: "essential", Name: "Essential Panel", Price: 199},
	{ID: "comprehensive", Name: "Comprehensive Panel", Price: 320},
	{ID: "premium", Name: "Premium Panel", Price: 420},
}

// PartnerLabs are the two fixed partner lab listings.
var PartnerLabs = []PartnerLab{
	{Name: "CityLab Diagnostics", Address: "14 Harley Street, London", Hours: "Mon-Sat 7:00-18:00"},
	{Name: "MedCore Laboratory", Address: "92 Borough High Street, London", Hours: "Mon-Fri 8:00-17:00"},
}

// TimeSlots are the seven fixed home-visit slots.
var TimeSlots = []string{
	"07:00 - 08:00",
	"08:00 - 09:00",
	"09:00 - 10:00",
	"10:00 - 11:00",
	"16:00 - 17:00",
	"17:00 - 18:00",
	"18:00 - 19:00",
}

// Fixed two-tier totals keyed on collection method only.
const (
	totalHome = 420
	totalLab  = 320
)

// ValidSlot reports whether slot is one of the fixed home-visit slots.
func ValidSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// PanelByID returns the panel with the given id, if any.
func PanelByID(id string) (Panel, bool) {
	for _, p := range Panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}
