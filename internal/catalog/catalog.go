// Package catalog maps storefront product names to tutorial aliases,
// tutorial page URLs and fulfillment categories. Product names arrive
// exactly as the storefront sends them, so the alias table matches on the
// exact string.
package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cubanhacks/ticket-bot/internal/domain"
)

const tutorialBaseURL = "https://cubanhacks.com/tutoriales.php?category=%s"

var tutorialAliases = map[string]string{
	// Cuban VIP Mod
	"Cuban VIP Mod 7 Dias":  "cuban_vip",
	"Cuban VIP Mod 15 Dias": "cuban_vip",
	"Cuban VIP Mod 30 Dias": "cuban_vip",

	// Drip Client DLL Aimbot
	"Drip Client DLL Aimbot 1 Dia":   "drip_dll",
	"Drip Client DLL Aimbot 15 Dias": "drip_dll",
	"Drip Client DLL Aimbot 30 Dias": "drip_dll",

	// Cuban CoD Mobile
	"Cuban CoD Mobile 7 Dias":  "cuban_cod_mobile",
	"Cuban CoD Mobile 30 Dias": "cuban_cod_mobile",

	// Cuban Autokill
	"Cuban Autokill 10 Dias":    "cuban_autokill",
	"Cuban Autokill 22 Dias":    "cuban_autokill",
	"Cuban Autokill Permanente": "cuban_autokill",

	// Cuban Disimulado
	"Cuban Disimulado 10 Dias":    "cuban_disimulado",
	"Cuban Disimulado 20 Dias":    "cuban_disimulado",
	"Cuban Disimulado Permanente": "cuban_disimulado",

	// Cuban Panel PC
	"CUBAN PANEL PC 1 DIA":   "cuban_panel_pc",
	"CUBAN PANEL PC 7 DIAS":  "cuban_panel_pc",
	"CUBAN PANEL PC 30 DIAS": "cuban_panel_pc",
	"CUBAN PANEL PC PERMA":   "cuban_panel_pc",

	// Cuban Panel iOS (storefront casing varies per listing)
	"Cuban Panel iOS 7 Dias":      "cubanios_tutorial",
	"Cuban Panel Ios 15 Dias":     "cubanios_tutorial",
	"Cuban Panel IOs 30 Dias":     "cubanios_tutorial",
	"Cuban Panel Ios certificado": "cubanios_tutorial",

	// Flourite Free Fire
	"Flourite Free Fire 1 Dia":   "flourite_ff",
	"Flourite Free Fire 7 Dias":  "flourite_ff",
	"Flourite Free Fire 30 Dias": "flourite_ff",

	// Cuban 8 Ball Pool
	"Cuban 8 Ball Pool 1 Dia":   "cuban_8bp",
	"Cuban 8 Ball Pool 7 Dias":  "cuban_8bp",
	"Cuban 8 Ball Pool 30 Dias": "cuban_8bp",

	// Easy Victory Premium
	"Easy Victory Premium 7 Dias":  "easy_victory",
	"Easy Victory Premium 30 Dias": "easy_victory",

	"Cuban Delta Force 30 Dias":   "cuban_delta_force",
	"Cuban Mobile Legend 30 Dias": "cuban_mobile_legend",

	"cuban black 10 Dias":    "cuban_black",
	"cuban black 20 Dias":    "cuban_black",
	"cuban black Permanente": "cuban_black",

	"Drip Silent 1 Dia":   "drip_silent",
	"Drip Silent 10 Dias": "drip_silent",
	"Drip Silent 30 Dias": "drip_silent",

	"Drip Aimkill 1 Dia":  "drip_aimkill",
	"Drip Aimkill 5 Dias": "drip_aimkill",
	"Drip Aimkill 7 Dias": "drip_aimkill",

	"BR MODS SILENT - 1 DIA":   "br_mods",
	"BR MODS SILENT - 30 DIAS": "br_mods",

	"BR MODS BYPASS- AIMBOT 1 DIA":   "br_bypass",
	"BR MOD BYPASS-SILENT - 10 DIAS": "br_bypass",
	"BR MODS BYPASS- AIMBOT 30 DIAS": "br_bypass",

	"Cuban DIsimulado 10 Dias":    "cuban_disimulado",
	"Cuban DIsimulado 20 Dias":    "cuban_disimulado",
	"Cuban DIsimulado Permanente": "cuban_disimulado",
	"Cuban Auto Kill 10 DIas":     "cuban_autokill",
	"Cuban Auto Kill 12 DIas":     "cuban_autokill",
	"Cuban Auto Kill 22 DIas":     "cuban_autokill",
	"Cuban Auto Kill Permanente":  "cuban_autokill",
	"Cuban Black Mod 10 Dias":     "cuban_black",
	"Cuban Black Mod 12 Dias":     "cuban_black",
	"Cuban Black Mod 20 Dias":     "cuban_black",
	"Cuban Black Mod Permanente":  "cuban_black",
	"CoD Mobile IOS - 7 Dias":     "cod_ios",
	"Cod Mobile IOS- 30 DIas":     "cod_ios",
	"Flourite Mobile Legends - 30 Dias": "flourite_ml",
	"Hack Diversion IOS - 1 Mes":        "cuban_diversion",
	"Flourite iOS":                      "flourite_ios",
	"Easy Victory 8 ball pool":          "easy_victory",

	// Streaming and account services
	"Netflix Premium 1 Mes":         "streaming_general",
	"Spotify Premium 1 Mes":         "streaming_general",
	"Paramount Plus  1 Mes":         "streaming_general",
	"Only Fans Hackeado  1 Mes":     "onlyfans_tutorial",
	"Only Fans Hackeado Permanente": "onlyfans_tutorial",
	"Panel De Seguidores":           "panel_tutorial",
	"Certificado Gbox 1 Año":        "gbox_tutorial",

	// Social network services
	"Seguidores Tik TOk":                      "redes_sociales",
	"Vistas Tik TOk":                          "redes_sociales",
	"Likes Tik Tok":                           "redes_sociales",
	"Seguidores Instagram":                    "redes_sociales",
	"Likes Instagram":                         "redes_sociales",
	"Vistas Instagram":                        "redes_sociales",
	"Miembros Para Canal Telegram":            "redes_sociales",
	"Espectadores Para Live - Duran 4 Horas":  "redes_sociales",
	"Miembros Para Canal Whatssap":            "redes_sociales",
}

var tutorialSlugs = map[string]string{
	"cuban_no_root":       "cuban-mod-no-root-version-aimkill-speed",
	"cuban_panel_ios":     "cuban-panel-ios",
	"cuban_diversion":     "cuban-diversion",
	"flourite_ios":        "flourite-ios",
	"cod_ios":             "cuban-cod-mobile-30",
	"cuban_cod_mobile":    "cuban-cod-mobile-30",
	"flourite_ml":         "flourite-ml",
	"drip_mobile":         "drip-mobile-30",
	"cuban_panel_pc":      "cuban-panel-pc",
	"br_mods":             "br-mods",
	"cuban_autokill":      "cuban-autokill",
	"cuban_black":         "cuban-black",
	"gbox_tutorial":       "gbox-tutorial",
	"cuban_disimulado":    "cuban-disimulado",
	"cuban_vip":           "cuban-vip",
	"cuban_vip_basic":     "cuban-vip-basic",
	"cuban_8bp":           "cuban-8bp",
	"easy_victory":        "easy-victory",
	"drip_aimkill":        "drip-aimkill",
	"drip_silent":         "drip-silent",
	"cuban_delta_force":   "cuban-delta-force",
	"cuban_mobile_legend": "cuban-mobile-legend",
	"cubanios_tutorial":   "cubanios-tutorial",
	"br_bypass":           "br-bypass",
	"drip_dll":            "drip-dll",
	"flourite_ff":         "flourite-ff",
	"streaming_general":   "streaming-general",
	"onlyfans_tutorial":   "onlyfans-tutorial",
	"panel_tutorial":      "panel-seguidores",
	"redes_sociales":      "redes-sociales",
	"general":             "general",
}

// fullTutorialAliases have a complete installation guide on the tutorial
// site, so the delivery message links straight to it instead of listing
// basic steps.
var fullTutorialAliases = map[string]bool{
	"drip_mobile":      true,
	"cuban_no_root":    true,
	"cuban_autokill":   true,
	"drip_silent":      true,
	"drip_aimkill":     true,
	"drip_dll":         true,
	"br_mods":          true,
	"br_bypass":        true,
	"cuban_panel_pc":   true,
	"cuban_8bp":        true,
	"cuban_vip":        true,
	"cuban_black":      true,
	"cuban_disimulado": true,
}

// manualProducts are sold without automatic delivery; an agent follows up.
var manualProducts = []string{
	"cuban panel ios",
	"flourite",
	"easy victory",
	"onlyfans",
	"netflix",
	"spotify",
}

// TutorialAlias maps an exact product name to its tutorial alias,
// defaulting to "general" for unmapped names.
func TutorialAlias(product string) string {
	if alias, ok := tutorialAliases[product]; ok {
		return alias
	}
	return "general"
}

// TutorialURL builds the tutorial page URL for an alias. Unmapped aliases
// fall back to the general tutorial slug.
func TutorialURL(alias string) string {
	slug, ok := tutorialSlugs[alias]
	if !ok {
		slug = tutorialSlugs["general"]
	}
	return fmt.Sprintf(tutorialBaseURL, slug)
}

// HasFullTutorial reports whether the alias has a complete guide online.
func HasFullTutorial(alias string) bool {
	return fullTutorialAliases[alias]
}

// Category classifies a product into its fulfillment branch.
func Category(product string) domain.ProductCategory {
	lower := strings.ToLower(product)
	if strings.Contains(lower, "socio") {
		return domain.CategorySocio
	}
	if strings.Contains(lower, "diamantes") {
		return domain.CategoryDiamonds
	}
	for _, manual := range manualProducts {
		if strings.Contains(lower, manual) {
			return domain.CategoryManual
		}
	}
	return domain.CategoryStandard
}

var durationDays = regexp.MustCompile(`(?i)(\d+)\s*d`)

// DurationLabel renders a declared duration as the backend expects it.
// Empty or unparseable durations default to "1 día".
func DurationLabel(duration string) string {
	lower := strings.ToLower(duration)
	if strings.Contains(lower, "perma") || strings.Contains(lower, "certificado") {
		return "Permanente"
	}
	if m := durationDays.FindStringSubmatch(duration); m != nil {
		if m[1] == "1" {
			return "1 día"
		}
		return m[1] + " días"
	}
	return "1 día"
}
