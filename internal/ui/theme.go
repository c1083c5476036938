package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header         lipgloss.Style
	Status         lipgloss.Style
	PanelTitle     lipgloss.Style
	PanelBorder    lipgloss.Style
	PanelBody      lipgloss.Style
	Overlay        lipgloss.Style
	OverlayTitle   lipgloss.Style
	Accent         lipgloss.Style
	Player         lipgloss.Style
	AI             lipgloss.Style
	System         lipgloss.Style
	Fail           lipgloss.Style
	Muted          lipgloss.Style
	Popup          lipgloss.Style
	Glitch         lipgloss.Style
	FlashWhite     lipgloss.Style
	FlashRed       lipgloss.Style
	TerminalBorder lipgloss.Style
}

var StyleVariants = []string{"retro_terminal", "amber", "phosphor_blue"}

func DefaultTheme() Theme {
	return ThemeForVariant("retro_terminal")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "amber":
		return amberTheme()
	case "phosphor_blue":
		return phosphorBlueTheme()
	default:
		return retroTerminalTheme()
	}
}

// NextStyleVariant cycles through StyleVariants.
func NextStyleVariant(variant string) string {
	for i, v := range StyleVariants {
		if v == variant {
			return StyleVariants[(i+1)%len(StyleVariants)]
		}
	}
	return StyleVariants[0]
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")
	cyan := lipgloss.Color("#7FE7E0")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D43")),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(amber).
			Background(deep).
			Foreground(glow).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Player:       lipgloss.NewStyle().Foreground(glow),
		AI:           lipgloss.NewStyle().Foreground(cyan),
		System:       lipgloss.NewStyle().Foreground(amber),
		Fail:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Popup:        lipgloss.NewStyle().Foreground(red).Bold(true),
		Glitch:       lipgloss.NewStyle().Foreground(deep).Background(lime),
		FlashWhite:   lipgloss.NewStyle().Foreground(deep).Background(lipgloss.Color("#FFFFFF")),
		FlashRed:     lipgloss.NewStyle().Foreground(glow).Background(lipgloss.Color("#8B0000")),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(lime),
	}
}

func amberTheme() Theme {
	amber := lipgloss.Color("#FFB000")
	honey := lipgloss.Color("#FFD27F")
	rust := lipgloss.Color("#FF5F40")
	night := lipgloss.Color("#1A1000")
	umber := lipgloss.Color("#3A2600")

	return Theme{
		Header:      lipgloss.NewStyle().Background(night).Foreground(honey).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(umber).Foreground(honey).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(honey).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#8A5E00")),
		PanelBody:   lipgloss.NewStyle().Foreground(amber),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(honey).
			Background(night).
			Foreground(amber).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(honey).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(honey).Bold(true),
		Player:       lipgloss.NewStyle().Foreground(amber),
		AI:           lipgloss.NewStyle().Foreground(honey),
		System:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00")),
		Fail:         lipgloss.NewStyle().Foreground(rust).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A87A2A")),
		Popup:        lipgloss.NewStyle().Foreground(rust).Bold(true),
		Glitch:       lipgloss.NewStyle().Foreground(night).Background(amber),
		FlashWhite:   lipgloss.NewStyle().Foreground(night).Background(lipgloss.Color("#FFF4DC")),
		FlashRed:     lipgloss.NewStyle().Foreground(honey).Background(lipgloss.Color("#7A1400")),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(amber),
	}
}

func phosphorBlueTheme() Theme {
	ice := lipgloss.Color("#A8E1FF")
	blue := lipgloss.Color("#5EC2FF")
	pink := lipgloss.Color("#FF6FB1")
	ink := lipgloss.Color("#050D1A")
	slate := lipgloss.Color("#132844")
	mint := lipgloss.Color("#79E6A6")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(ice).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(ice).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#2B5A8A")),
		PanelBody:   lipgloss.NewStyle().Foreground(ice),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Background(ink).
			Foreground(ice).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(blue).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		Player:       lipgloss.NewStyle().Foreground(ice),
		AI:           lipgloss.NewStyle().Foreground(mint),
		System:       lipgloss.NewStyle().Foreground(blue),
		Fail:         lipgloss.NewStyle().Foreground(pink).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#6F8FB0")),
		Popup:        lipgloss.NewStyle().Foreground(pink).Bold(true),
		Glitch:       lipgloss.NewStyle().Foreground(ink).Background(blue),
		FlashWhite:   lipgloss.NewStyle().Foreground(ink).Background(lipgloss.Color("#F0FAFF")),
		FlashRed:     lipgloss.NewStyle().Foreground(ice).Background(lipgloss.Color("#6A0033")),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(blue),
	}
}
