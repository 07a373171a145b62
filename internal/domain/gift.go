package domain

// Gift quantity bounds. A gift may further restrict the per-order maximum,
// but never beyond these limits.
const (
	MinQuantityPerOrder = 1
	DefaultMaxPerOrder  = 10
	AbsoluteMaxPerOrder = 10
	MinUnitAmountCents  = 1
	MaxUnitAmountCents  = 100_000_00 // R$ 100.000,00
)

// Gift is a purchasable symbolic gift configured by the event host.
// Gifts are read-only from the registry core's perspective; they are owned
// by the host's event configuration and only ever read here.
type Gift struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitAmount  int64  `json:"unit_amount"`
	MaxPerOrder int    `json:"max_per_order"`
	TotalStock  *int   `json:"total_stock,omitempty"`
	Reserved    int    `json:"reserved"`
	ImageURL    string `json:"image_url,omitempty"`
	SortOrder   int    `json:"sort_order"`
	Active      bool   `json:"active"`
}

// Available returns how many units can still be reserved, or -1 when the
// gift has no stock cap.
func (g *Gift) Available() int {
	if g.TotalStock == nil {
		return -1
	}
	avail := *g.TotalStock - g.Reserved
	if avail < 0 {
		return 0
	}
	return avail
}

// MaxQuantity returns the effective per-order quantity cap for this gift.
func (g *Gift) MaxQuantity() int {
	if g.MaxPerOrder < MinQuantityPerOrder || g.MaxPerOrder > AbsoluteMaxPerOrder {
		return DefaultMaxPerOrder
	}
	return g.MaxPerOrder
}

// ClampQuantity clamps a requested quantity into [1, MaxQuantity].
// A quantity of zero or less is the caller's signal to remove the item and
// must be handled before clamping.
func (g *Gift) ClampQuantity(qty int) int {
	if qty < MinQuantityPerOrder {
		return MinQuantityPerOrder
	}
	if max := g.MaxQuantity(); qty > max {
		return max
	}
	return qty
}

// RegistryConfig is the optional gift-registry sub-schema of an event's
// configuration: the host's PIX receiving details shown to guests after
// checkout. It is validated once at the repository boundary instead of being
// cast out of a generic content blob at each use site.
type RegistryConfig struct {
	EventID       string `json:"event_id"`
	EventName     string `json:"event_name"`
	PixKey        string `json:"pix_key"`
	PixHolderName string `json:"pix_holder_name,omitempty"`
	WelcomeText   string `json:"welcome_text,omitempty"`
}

// Enabled reports whether the host has configured a usable registry: a PIX
// key is the minimum required to display payment instructions.
func (c *RegistryConfig) Enabled() bool {
	return c != nil && c.PixKey != ""
}
