package view

// NavItem anchors to a named dashboard section.
type NavItem struct {
	Label  string
	Anchor string
}

// Layout parameterises the page chrome.
type Layout struct {
	Brand         string
	MerchantLabel string
	Nav           []NavItem
	Footer        string
}

// Dashboard sections, in page order.
var defaultNav = []NavItem{
	{Label: "Visão geral", Anchor: "overview"},
	{Label: "Transações", Anchor: "transactions"},
	{Label: "Erros", Anchor: "errors"},
	{Label: "Bandeiras", Anchor: "brands"},
}

// DefaultLayout returns the dashboard chrome for merchantLabel.
func DefaultLayout(merchantLabel string) Layout {
	return Layout{MerchantLabel: merchantLabel}.withDefaults()
}

func (l Layout) withDefaults() Layout {
	if l.Brand == "" {
		l.Brand = "APEX Analytics"
	}
	if len(l.Nav) == 0 {
		l.Nav = defaultNav
	}
	if l.Footer == "" {
		l.Footer = "Dados consolidados do processamento de pagamentos."
	}
	return l
}
